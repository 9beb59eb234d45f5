package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/clinic-api/config"
	"github.com/linesmerrill/clinic-api/databases"
)

// Resets the password of a clinic user, or prints the bcrypt hash when no email is given
// Usage: go run scripts/reset_user_password.go <password> [email]
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/reset_user_password.go <password> [email]")
		fmt.Println("Example: go run scripts/reset_user_password.go 0i2rinbcp12yc31h frontdesk@clinic.example")
		os.Exit(1)
	}

	password := os.Args[1]
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		fmt.Printf("Bcrypt Hash: %s\n", string(hashedPassword))
		return
	}
	email := strings.ToLower(strings.TrimSpace(os.Args[2]))

	conf := config.New()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := databases.NewClient(conf)
	if err != nil {
		fmt.Printf("Error creating client: %v\n", err)
		os.Exit(1)
	}
	if err := client.Connect(ctx); err != nil {
		fmt.Printf("Error connecting to %s: %v\n", conf.DatabaseName, err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	users := databases.NewUserDatabase(databases.NewDatabase(conf, client))
	matched, err := users.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"password": string(hashedPassword), "updatedAt": time.Now()}})
	if err != nil {
		fmt.Printf("Error updating %s: %v\n", email, err)
		os.Exit(1)
	}
	if matched == 0 {
		fmt.Printf("No user with email %s\n", email)
		os.Exit(1)
	}
	fmt.Printf("Password updated for %s\n", email)
}
