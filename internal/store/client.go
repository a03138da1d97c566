// Package store implements the repository interfaces on Firestore. Batch
// writes are atomic per commit; statistics documents are written with merge
// sets so concurrent writers never clobber other periods' entries.
package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

const (
	usersCollection      = "users"
	requestsCollection   = "requests"
	statisticsCollection = "statistics"
)

// NewClient initializes the Firestore client through the Firebase app. It
// first attempts Base64-encoded credentials from the
// FIREBASE_SERVICE_ACCOUNT_JSON environment variable and falls back to a
// local service account key file.
func NewClient(ctx context.Context, projectID, localFilePath string) (*firestore.Client, error) {
	var opts []option.ClientOption

	encodedCreds := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials from FIREBASE_SERVICE_ACCOUNT_JSON: %v", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
		log.Println("Firestore: initializing from FIREBASE_SERVICE_ACCOUNT_JSON environment variable")
	} else if localFilePath != "" {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("local firebase file not found: %s, and FIREBASE_SERVICE_ACCOUNT_JSON environment variable is not set", localFilePath)
		}
		opts = append(opts, option.WithCredentialsFile(localFilePath))
		log.Printf("Firestore: initializing from local file: %s", localFilePath)
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %v", err)
	}

	return client, nil
}
