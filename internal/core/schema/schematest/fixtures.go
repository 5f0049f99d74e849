// Package schematest provides the User/UserProfile/Post mapping and matching
// SQLite tables used across the query packages' tests.
package schematest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema"
)

// Entities returns the fixture mapping.
func Entities() []schema.Entity {
	return []schema.Entity{
		{
			Name:  "User",
			Table: "users",
			Fields: []schema.Field{
				{Name: "id", Column: "id", Type: domain.TypeInt, ID: true},
				{Name: "username", Column: "username", Type: domain.TypeString},
				{Name: "password", Column: "password", Type: domain.TypeString},
				{Name: "fullname", Column: "fullname", Type: domain.TypeString, Nullable: true},
				{Name: "createdAt", Column: "created_at", Type: domain.TypeTime},
				{Name: "modifiedAt", Column: "modified_at", Type: domain.TypeTime},
			},
			Associations: []schema.Association{
				{Name: "userProfile", Target: "UserProfile", Kind: schema.OneToOne, LocalColumn: "id", TargetColumn: "user_id"},
				{Name: "posts", Target: "Post", Kind: schema.OneToMany, LocalColumn: "id", TargetColumn: "user_id"},
			},
		},
		{
			Name:  "UserProfile",
			Table: "user_profile",
			Fields: []schema.Field{
				{Name: "id", Column: "id", Type: domain.TypeInt, ID: true},
				{Name: "userId", Column: "user_id", Type: domain.TypeInt},
				{Name: "address", Column: "address", Type: domain.TypeString, Nullable: true},
				{Name: "phone", Column: "phone", Type: domain.TypeString, Nullable: true},
			},
			Associations: []schema.Association{
				{Name: "user", Target: "User", Kind: schema.ManyToOne, LocalColumn: "user_id", TargetColumn: "id"},
			},
		},
		{
			Name:  "Post",
			Table: "posts",
			Fields: []schema.Field{
				{Name: "id", Column: "id", Type: domain.TypeInt, ID: true},
				{Name: "userId", Column: "user_id", Type: domain.TypeInt},
				{Name: "title", Column: "title", Type: domain.TypeString},
			},
			Associations: []schema.Association{
				{Name: "author", Target: "User", Kind: schema.ManyToOne, LocalColumn: "user_id", TargetColumn: "id"},
			},
		},
	}
}

// Registry returns a registry loaded with Entities.
func Registry() *schema.MetadataRegistry {
	r := schema.NewMetadataRegistry()
	if err := r.Register(Entities()...); err != nil {
		panic(err)
	}
	if err := r.Validate(); err != nil {
		panic(err)
	}
	return r
}

// SQLiteDDL creates the fixture tables.
const SQLiteDDL = `
CREATE TABLE users (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	username    TEXT NOT NULL UNIQUE,
	password    TEXT NOT NULL,
	fullname    TEXT,
	created_at  DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);
CREATE TABLE user_profile (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	address TEXT,
	phone   TEXT
);
CREATE TABLE posts (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	title   TEXT NOT NULL
);
`

// Base is the creation time of the first seeded user. User i (1-based) is
// created i-1 hours later, so later ids sort later by createdAt.
var Base = time.Date(2021, time.March, 1, 8, 0, 0, 0, time.UTC)

// Seed inserts n users named user01..userNN with fullname "User NN".
func Seed(ctx context.Context, db *sql.DB, n int) error {
	for i := 1; i <= n; i++ {
		created := Base.Add(time.Duration(i-1) * time.Hour)
		_, err := db.ExecContext(ctx,
			`INSERT INTO users (username, password, fullname, created_at, modified_at) VALUES (?, ?, ?, ?, ?)`,
			fmt.Sprintf("user%02d", i), "secret", fmt.Sprintf("User %02d", i), created, created)
		if err != nil {
			return fmt.Errorf("seed user %d: %w", i, err)
		}
	}
	return nil
}

// SeedMonths inserts users whose createdAt falls in the given month, counts[m]
// users for month m of year 2021.
func SeedMonths(ctx context.Context, db *sql.DB, counts map[time.Month]int) error {
	seq := 0
	for m := time.January; m <= time.December; m++ {
		for i := 0; i < counts[m]; i++ {
			seq++
			created := time.Date(2021, m, 1+i, 12, 0, 0, 0, time.UTC)
			_, err := db.ExecContext(ctx,
				`INSERT INTO users (username, password, fullname, created_at, modified_at) VALUES (?, ?, ?, ?, ?)`,
				fmt.Sprintf("m%02d_%03d", m, seq), "secret", fmt.Sprintf("Month %d #%d", m, i), created, created)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// MappingYAML is the fixture mapping as a mapping document.
const MappingYAML = `version: "1.0"
entities:
  - name: User
    table: users
    fields:
      - {name: id, type: int, id: true}
      - {name: username, type: string}
      - {name: password, type: string}
      - {name: fullname, type: string, nullable: true}
      - {name: createdAt, column: created_at, type: datetime}
      - {name: modifiedAt, column: modified_at, type: datetime}
    associations:
      - {name: userProfile, target: UserProfile, kind: one-to-one, localColumn: id, targetColumn: user_id}
      - {name: posts, target: Post, kind: one-to-many, localColumn: id, targetColumn: user_id}
  - name: UserProfile
    table: user_profile
    fields:
      - {name: id, type: int, id: true}
      - {name: userId, column: user_id, type: int}
      - {name: address, type: string, nullable: true}
      - {name: phone, type: string, nullable: true}
    associations:
      - {name: user, target: User, kind: many-to-one, localColumn: user_id, targetColumn: id}
  - name: Post
    table: posts
    fields:
      - {name: id, type: int, id: true}
      - {name: userId, column: user_id, type: int}
      - {name: title, type: string}
    associations:
      - {name: author, target: User, kind: many-to-one, localColumn: user_id, targetColumn: id}
`
