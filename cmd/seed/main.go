package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/wolfman30/clinic-portal/internal/messaging"
)

// seed fills the failed-delivery ledger with fake entries so the admin
// retry surface can be exercised locally without breaking real sends.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; using environment")
	}

	count := flag.Int("count", 20, "number of failed notification entries to create")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	store := messaging.NewStore(pool)

	templates := []string{
		"created_patient",
		"created_provider",
		"cancelled_patient",
		"cancelled_provider",
		"rejected_patient",
		"reminder_24h_patient",
		"reminder_1h_patient",
	}
	sendErrors := []string{
		"wagateway: instance not connected",
		"wagateway: send rejected: number not on whatsapp",
		"wagateway: POST /message/sendText/clinic: status 504: upstream timeout",
	}

	for i := 0; i < *count; i++ {
		phone := gofakeit.Phone()
		body := fmt.Sprintf("Hi %s, your %s appointment with Dr. %s is confirmed.",
			gofakeit.FirstName(), gofakeit.RandomString([]string{"follow-up", "initial consultation", "lab review"}), gofakeit.LastName())
		template := gofakeit.RandomString(templates)
		sendErr := gofakeit.RandomString(sendErrors)

		id, err := store.InsertFailed(ctx, phone, body, template, sendErr)
		if err != nil {
			log.Fatalf("insert failed entry: %v", err)
		}
		fmt.Printf("seeded failed notification %s (%s)\n", id, template)
	}

	fmt.Printf("seeded %d failed notification entries\n", *count)
}
