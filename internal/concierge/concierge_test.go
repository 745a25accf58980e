package concierge

import (
	"context"
	"testing"

	"github.com/zulandar/concierge/internal/config"
	"github.com/zulandar/concierge/internal/db"
	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/models"
	"github.com/zulandar/concierge/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	rooms := make([]int, 0, 10)
	for n := 101; n <= 110; n++ {
		rooms = append(rooms, n)
	}
	if _, err := db.SeedRooms(gdb, rooms); err != nil {
		t.Fatalf("seed rooms: %v", err)
	}
	if err := db.UpsertMenu(gdb, []models.MenuItem{
		{ItemName: "Idli", Description: "Steamed rice cakes", Price: 40, Available: true},
		{ItemName: "Dosa", Price: 60, Available: true},
		{ItemName: "Masala Dosa", Price: 80, Available: true},
	}); err != nil {
		t.Fatalf("seed menu: %v", err)
	}
	s, err := store.New(gdb)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return s
}

func testFacilities() []config.FacilityConfig {
	return []config.FacilityConfig{
		{Name: "gym", Label: "Gym", Info: "🏋️ Our gym is open from 6:00 AM to 10:00 PM."},
		{Name: "spa", Label: "Spa", Info: "💆 Our spa operates from 9:00 AM to 8:00 PM."},
		{Name: "pool", Label: "Swimming Pool", Info: "🏊 The swimming pool is open from 7:00 AM to 9:00 PM."},
	}
}

func testFrontDesk(t *testing.T, b FrontDeskBackend) *FrontDesk {
	t.Helper()
	fd, err := NewFrontDesk(FrontDeskOpts{
		Backend:    b,
		Rooms:      dialogue.RoomRange{Min: 100, Max: 109},
		CheckIn:    "2:00 PM",
		CheckOut:   "11:00 AM",
		Facilities: testFacilities(),
	})
	if err != nil {
		t.Fatalf("NewFrontDesk: %v", err)
	}
	return fd
}

func testHousekeeping(t *testing.T, b HousekeepingBackend) *Housekeeping {
	t.Helper()
	hk, err := NewHousekeeping(HousekeepingOpts{Backend: b, DefaultRoom: 101})
	if err != nil {
		t.Fatalf("NewHousekeeping: %v", err)
	}
	return hk
}

type testEnv struct {
	router   *Router
	store    *store.Store
	sessions *dialogue.MemoryStore
}

// newTestEnv wires a Router over an in-memory database. opts fields that
// are already set are kept.
func newTestEnv(t *testing.T, opts RouterOpts) *testEnv {
	t.Helper()
	s := testStore(t)
	sessions := dialogue.NewMemoryStore(0)
	machine, err := dialogue.NewMachine(dialogue.MachineOpts{Backend: s})
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if opts.Sessions == nil {
		opts.Sessions = sessions
	}
	if opts.Dialogue == nil {
		opts.Dialogue = machine
	}
	if opts.FrontDesk == nil {
		opts.FrontDesk = testFrontDesk(t, s)
	}
	if opts.Housekeeping == nil {
		opts.Housekeeping = testHousekeeping(t, s)
	}
	r, err := NewRouter(opts)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testEnv{router: r, store: s, sessions: sessions}
}

func (e *testEnv) route(sessionID, msg string) string {
	return e.router.Route(context.Background(), sessionID, msg)
}
