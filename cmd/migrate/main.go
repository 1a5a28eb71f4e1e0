package main

import (
	"log"
	"os"

	"medibuddy-be/internal/model"
	"medibuddy-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 1. Extensions GORM AutoMigrate cannot create itself
	log.Println("Step 1: Setting up extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 2. AutoMigrate all models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.User{},
		&model.Prescription{},
		&model.PrescriptionEmbedding{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.NotificationType{},
		&model.Notification{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 3. Vector index for cosine search
	log.Println("Step 3: Creating vector index...")
	indexSQL := `CREATE INDEX IF NOT EXISTS idx_prescription_embeddings_cosine
		ON prescription_embeddings
		USING hnsw (embedding_value vector_cosine_ops);`
	if err := db.Exec(indexSQL).Error; err != nil {
		log.Printf("Warn: Failed to create vector index: %v", err)
	}

	// 4. Session uniqueness: one global session per user, one scoped session
	// per (user, prescription). Partial so soft-deleted rows do not block
	// re-creation.
	log.Println("Step 4: Creating session uniqueness indexes...")
	sessionIndexSQL := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_chat_sessions_user_global
			ON chat_sessions (user_id)
			WHERE prescription_id IS NULL AND deleted_at IS NULL;`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_chat_sessions_user_prescription
			ON chat_sessions (user_id, prescription_id)
			WHERE prescription_id IS NOT NULL AND deleted_at IS NULL;`,
	}
	for _, sql := range sessionIndexSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create session index: %v", err)
		}
	}

	// 5. Seed the notification registry
	log.Println("Step 5: Seeding notification types...")
	seedSQL := []string{
		`INSERT INTO notification_types (code, display_name, template, target_type, is_active)
		 VALUES ('USER_REGISTERED', 'Welcome', 'Welcome to MediBuddy, {full_name}!', 'SELF', true)
		 ON CONFLICT (code) DO NOTHING;`,
		`INSERT INTO notification_types (code, display_name, template, target_type, is_active)
		 VALUES ('PRESCRIPTION_INDEXED', 'Prescription Ready', 'Your prescription "{title}" is ready. Ask away!', 'SELF', true)
		 ON CONFLICT (code) DO NOTHING;`,
		`INSERT INTO notification_types (code, display_name, template, target_type, is_active)
		 VALUES ('REMINDER_CREATED', 'Reminder Set', 'Medicine reminder created. Open it here: {event_link}', 'SELF', true)
		 ON CONFLICT (code) DO NOTHING;`,
	}
	for _, sql := range seedSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to seed notification type: %v", err)
		}
	}

	log.Println("Migration completed successfully")
}
