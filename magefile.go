//go:build mage

package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
)

const migrationsDir = "internal/store/migrations"

// Build compiles the agent and the notification API into ./bin
func Build() error {
	for _, name := range []string{"agent", "server"} {
		if err := run("go", "build", "-o", "bin/"+name, "./cmd/"+name); err != nil {
			return err
		}
	}
	return nil
}

// Test runs the unit tests with the race detector
func Test() error {
	return run("go", "test", "-race", "./...")
}

// Emulators starts NATS and the Firestore emulator for local runs
func Emulators() error {
	if err := run("docker", "run", "-d", "--rm", "--name", "hostelnotify-nats", "-p", "4222:4222", "nats:2"); err != nil {
		return err
	}
	return run("docker", "run", "-d", "--rm", "--name", "hostelnotify-firestore", "-p", "8081:8081",
		"gcr.io/google.com/cloudsdktool/google-cloud-cli:emulators",
		"gcloud", "emulators", "firestore", "start", "--host-port=0.0.0.0:8081")
}

// MigrateUp applies the agent's local migrations to LOCAL_DB_PATH
func MigrateUp() error {
	loadEnv()
	return run("migrate", "-path", migrationsDir, "-database", "sqlite3://"+getEnv("LOCAL_DB_PATH", "./hostelnotify.db"), "up")
}

// MigrateCreate creates new migration files
func MigrateCreate(name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}
	return run("migrate", "create", "-ext", "sql", "-dir", migrationsDir, "-seq", name)
}

// Helper functions

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func loadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
