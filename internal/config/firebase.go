package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type ServiceAccountCredentials struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
	UniverseDomain          string `json:"universe_domain"`
}

type FirebaseConfig struct {
	ProjectID   string
	DatabaseURL string
	Credentials ServiceAccountCredentials
}

type FirebaseClient struct {
	App       *firebase.App
	Firestore *firestore.Client
	Messaging *messaging.Client
}

func NewFirebaseClient(ctx context.Context, config *FirebaseConfig) (*FirebaseClient, error) {
	credentialsJSON, err := json.Marshal(config.Credentials)
	if err != nil {
		slog.Error("Failed to marshal Firebase credentials", slog.Any("error", err))
		return nil, err
	}

	opt := option.WithCredentialsJSON(credentialsJSON)

	firebaseConfig := &firebase.Config{
		ProjectID:   config.ProjectID,
		DatabaseURL: config.DatabaseURL,
	}

	app, err := firebase.NewApp(ctx, firebaseConfig, opt)
	if err != nil {
		slog.Error("Failed to create Firebase app", slog.Any("error", err))
		return nil, err
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		slog.Error("Failed to create Firestore client", slog.Any("error", err))
		return nil, err
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		firestoreClient.Close()
		slog.Error("Failed to create Messaging client", slog.Any("error", err))
		return nil, err
	}

	return &FirebaseClient{
		App:       app,
		Firestore: firestoreClient,
		Messaging: messagingClient,
	}, nil
}

var ErrMissingFirebaseConfig = errors.New("missing required Firebase config environment variables")

var requiredFirebaseVars = []string{
	"FIREBASE_PROJECT_ID",
	"FIREBASE_TYPE",
	"FIREBASE_PRIVATE_KEY_ID",
	"FIREBASE_PRIVATE_KEY",
	"FIREBASE_CLIENT_EMAIL",
	"FIREBASE_CLIENT_ID",
	"FIREBASE_AUTH_URI",
	"FIREBASE_TOKEN_URI",
	"FIREBASE_AUTH_PROVIDER_X509_CERT_URL",
	"FIREBASE_CLIENT_X509_CERT_URL",
	"FIREBASE_UNIVERSE_DOMAIN",
}

func missingEnvVariables(names []string) []string {
	var missing []string
	for _, name := range names {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// LoadFirebaseConfig builds the service account from FIREBASE_* variables.
// FIREBASE_DATABASE_URL is optional.
func LoadFirebaseConfig() (*FirebaseConfig, error) {
	if missing := missingEnvVariables(requiredFirebaseVars); len(missing) > 0 {
		slog.Error("Environment variable validation failed", "missing", missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingFirebaseConfig, strings.Join(missing, ", "))
	}

	credentials := ServiceAccountCredentials{
		Type:         os.Getenv("FIREBASE_TYPE"),
		ProjectID:    os.Getenv("FIREBASE_PROJECT_ID"),
		PrivateKeyID: os.Getenv("FIREBASE_PRIVATE_KEY_ID"),
		// keys pasted into .env usually carry escaped newlines
		PrivateKey:              strings.ReplaceAll(os.Getenv("FIREBASE_PRIVATE_KEY"), `\n`, "\n"),
		ClientEmail:             os.Getenv("FIREBASE_CLIENT_EMAIL"),
		ClientID:                os.Getenv("FIREBASE_CLIENT_ID"),
		AuthURI:                 os.Getenv("FIREBASE_AUTH_URI"),
		TokenURI:                os.Getenv("FIREBASE_TOKEN_URI"),
		AuthProviderX509CertURL: os.Getenv("FIREBASE_AUTH_PROVIDER_X509_CERT_URL"),
		ClientX509CertURL:       os.Getenv("FIREBASE_CLIENT_X509_CERT_URL"),
		UniverseDomain:          os.Getenv("FIREBASE_UNIVERSE_DOMAIN"),
	}

	return &FirebaseConfig{
		ProjectID:   credentials.ProjectID,
		DatabaseURL: os.Getenv("FIREBASE_DATABASE_URL"),
		Credentials: credentials,
	}, nil
}

// InitFirebase loads the service account from the environment and connects.
func InitFirebase(ctx context.Context) (*FirebaseClient, error) {
	slog.Info("Initializing Firebase connection from environment variables")

	firebaseConfig, err := LoadFirebaseConfig()
	if err != nil {
		slog.Error("Failed to load Firebase config from environment variables", slog.Any("error", err))
		return nil, err
	}

	client, err := NewFirebaseClient(ctx, firebaseConfig)
	if err != nil {
		slog.Error("Failed to initialize Firebase client", slog.Any("error", err))
		return nil, err
	}

	slog.Info("Firebase connection initialized successfully")
	return client, nil
}

func (c *FirebaseClient) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	if err := c.Firestore.Close(); err != nil {
		slog.Error("Failed to close Firebase connection", slog.Any("error", err))
		return err
	}
	slog.Info("Firebase connection closed successfully")
	return nil
}
