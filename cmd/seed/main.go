package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/slot-scheduling-service/internal/config"
	"github.com/hackgods/slot-scheduling-service/internal/db"
	redisclient "github.com/hackgods/slot-scheduling-service/internal/redis"
	"github.com/hackgods/slot-scheduling-service/internal/slot"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	centerIDs, err := seedCenters(context.Background(), pool, 5)
	if err != nil {
		log.Fatalf("seed centers: %v", err)
	}
	if err := seedAgendas(context.Background(), pool, centerIDs, 20); err != nil {
		log.Fatalf("seed agendas: %v", err)
	}

	log.Println("seed complete")
}

func seedCenters(ctx context.Context, pool *pgxpool.Pool, count int) ([]int, error) {
	log.Printf("seeding %d centers", count)

	ids := make([]int, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Company() + " Medical Center"

		var id int
		err := pool.QueryRow(ctx, `
			INSERT INTO centers (org_id, name, created_at)
			VALUES ($1, $2, now())
			RETURNING id
		`, "org-demo", name).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	log.Println("centers seeded")
	return ids, nil
}

// seedAgendas generates a week of slots per staff member through the real
// generator, so seeded data obeys the same conflict rules as production
// writes.
func seedAgendas(ctx context.Context, pool *pgxpool.Pool, centerIDs []int, staffCount int) error {
	log.Printf("seeding agendas for %d staff members", staffCount)

	specialties := []string{
		"CLINICA_MEDICA",
		"CARDIOLOGIA",
		"PEDIATRIA",
		"DERMATOLOGIA",
		"NEUROLOGIA",
		"TRAUMATOLOGIA",
		"OFTALMOLOGIA",
	}

	store := slot.NewPgStore(pool)
	svc := slot.NewService(store, redisclient.NopLocker(), slot.SystemClock(), config.Config{})

	startDate := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	for i := 0; i < staffCount; i++ {
		staffID := fmt.Sprintf("staff-%s", gofakeit.Username())
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		result, err := svc.CreateAgenda(ctx, slot.NewSlotParams{
			OrgID:       "org-demo",
			CenterID:    centerIDs[gofakeit.Number(0, len(centerIDs)-1)],
			StaffUserID: staffID,
			Specialty:   &spec,
		}, slot.Agenda{
			StartDate:       startDate,
			WorkStartTime:   "09:00",
			WorkEndTime:     "17:00",
			SlotDurationMin: 30,
			Days:            7,
		})
		if err != nil {
			return err
		}

		log.Printf("agenda seeded: staff=%s created=%d/%d", staffID, result.Created, result.Requested)
	}

	log.Println("agendas seeded")
	return nil
}
