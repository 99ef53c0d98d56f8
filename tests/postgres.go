// Package tests contains helpers for writing database-backed tests.
package tests

import (
	"context"
	"log"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/lumenhq/lumen/core"
	"github.com/lumenhq/lumen/login"
	"github.com/lumenhq/lumen/postgres"
)

var Faker = gofakeit.New(rand.Uint64())

// DB connects to the database in the DATABASE_URL env variable and migrates it.
// Tests that call this are skipped when no database is configured.
func DB(t *testing.T) *postgres.DB {
	t.Helper()
	ctx := context.Background()
	if err := godotenv.Load("../.env"); err != nil {
		log.Printf("Could not load the .env file: %v", err)
	}
	url := os.Getenv("DATABASE_URL")
	if len(url) == 0 {
		t.Skip("To test database functionality, set the DATABASE_URL env variable to a valid database")
	}
	db, err := postgres.NewDB(ctx, url)
	if err != nil {
		t.Fatalf("Cannot connect to the test database: %v", err)
	}

	if err = db.Migrate(ctx); err != nil {
		t.Fatalf("Cannot migrate the test database: %v", err)
	}

	return db
}

// AccountService is a service over the test database.
// It deletes all existing users so every test starts from a clean slate.
type AccountService interface {
	login.AccountService
	ListUsers(ctx context.Context) ([]core.User, error)
	DeleteUser(ctx context.Context, id core.UserID) error
}

func DeleteAllUsers(service AccountService) {
	ctx := context.Background()
	users, err := service.ListUsers(ctx)
	Check(err)
	for _, user := range users {
		Check(service.DeleteUser(ctx, user.ID))
	}
}

// FakeUserData generates provider user data for the specified provider.
func FakeUserData(provider string) *login.UserData {
	return &login.UserData{
		ID:       Faker.UUID(),
		Nickname: Faker.Username(),
		Name:     Faker.Name(),
		Email:    Faker.Email(),
		Avatar:   Faker.URL(),
		Provider: provider,
	}
}

func Check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
