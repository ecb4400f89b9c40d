package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookline/scheduling/internal/appointment"
	"github.com/bookline/scheduling/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS businesses (
	id         uuid PRIMARY KEY,
	name       text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS services (
	id               uuid PRIMARY KEY,
	business_id      uuid NOT NULL REFERENCES businesses(id),
	name             text NOT NULL,
	duration_minutes int  NOT NULL CHECK (duration_minutes >= 0),
	created_at       timestamptz NOT NULL DEFAULT now(),
	updated_at       timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id         uuid PRIMARY KEY,
	name       text NOT NULL,
	email      text,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appointments (
	id               uuid PRIMARY KEY,
	fingerprint      text NOT NULL,
	issuer_id        uuid NOT NULL,
	contact_id       uuid NOT NULL,
	business_id      uuid NOT NULL,
	service_id       uuid NOT NULL,
	start_at         timestamptz NOT NULL,
	duration_minutes int CHECK (duration_minutes >= 0),
	finish_at        timestamptz,
	status           text NOT NULL CHECK (status IN ('R','C','A','S')),
	comments         text,
	created_at       timestamptz NOT NULL DEFAULT now(),
	updated_at       timestamptz NOT NULL DEFAULT now()
);

-- Backstop against exact duplicate proposals racing past the business lock.
CREATE UNIQUE INDEX IF NOT EXISTS appointments_fingerprint_uq ON appointments (fingerprint);
CREATE INDEX IF NOT EXISTS appointments_business_start_idx ON appointments (business_id, start_at);
CREATE INDEX IF NOT EXISTS appointments_contact_start_idx ON appointments (contact_id, start_at);

CREATE TABLE IF NOT EXISTS event_logs (
	id             bigserial PRIMARY KEY,
	event_type     text NOT NULL,
	appointment_id uuid,
	payload        jsonb,
	created_at     timestamptz NOT NULL DEFAULT now()
);
`

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

	gofakeit.Seed(time.Now().UnixNano())

	if err := ensureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	businesses, err := seedBusinesses(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed businesses: %v", err)
	}
	services, err := seedServices(context.Background(), pool, businesses)
	if err != nil {
		log.Fatalf("seed services: %v", err)
	}
	contacts, err := seedContacts(context.Background(), pool, 2000)
	if err != nil {
		log.Fatalf("seed contacts: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, businesses, services, contacts, 500); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

func seedBusinesses(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d businesses", count)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		_, err := pool.Exec(ctx, `
			INSERT INTO businesses (id, name)
			VALUES ($1, $2)
		`, id, gofakeit.Company())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool, businesses []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	names := []string{
		"Consultation",
		"Follow-up",
		"Haircut",
		"Massage",
		"Cleaning",
		"Inspection",
		"Tutoring Session",
		"Fitting",
	}
	durations := []int{15, 30, 45, 60, 90}

	log.Printf("seeding services for %d businesses", len(businesses))

	services := make(map[uuid.UUID][]uuid.UUID, len(businesses))
	for _, businessID := range businesses {
		n := gofakeit.Number(2, 5)
		for i := 0; i < n; i++ {
			id := uuid.New()
			name := names[gofakeit.Number(0, len(names)-1)]
			duration := durations[gofakeit.Number(0, len(durations)-1)]
			_, err := pool.Exec(ctx, `
				INSERT INTO services (id, business_id, name, duration_minutes)
				VALUES ($1, $2, $3, $4)
			`, id, businessID, name, duration)
			if err != nil {
				return nil, err
			}
			services[businessID] = append(services[businessID], id)
		}
	}
	return services, nil
}

func seedContacts(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d contacts", count)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		_, err := pool.Exec(ctx, `
			INSERT INTO contacts (id, name, email)
			VALUES ($1, $2, $3)
		`, id, gofakeit.Name(), gofakeit.Email())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// seedAppointments places non-overlapping reserved appointments on a simple
// per-business grid so the demo data never violates the collision rules.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, businesses []uuid.UUID, services map[uuid.UUID][]uuid.UUID, contacts []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	base := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	slotPerBusiness := make(map[uuid.UUID]int)

	for i := 0; i < count; i++ {
		businessID := businesses[gofakeit.Number(0, len(businesses)-1)]
		svcs := services[businessID]
		if len(svcs) == 0 {
			continue
		}
		serviceID := svcs[gofakeit.Number(0, len(svcs)-1)]
		contactID := contacts[gofakeit.Number(0, len(contacts)-1)]

		slot := slotPerBusiness[businessID]
		slotPerBusiness[businessID] = slot + 1

		startAt := base.Add(time.Duration(slot) * time.Hour)
		duration := 30

		fingerprint := appointment.Fingerprint(startAt, contactID, businessID, serviceID)

		_, err := pool.Exec(ctx, `
			INSERT INTO appointments
				(id, fingerprint, issuer_id, contact_id, business_id, service_id,
				 start_at, duration_minutes, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (fingerprint) DO NOTHING
		`, uuid.New(), fingerprint, contactID, contactID, businessID, serviceID,
			startAt, duration, string(appointment.StatusReserved))
		if err != nil {
			return err
		}
	}
	return nil
}
