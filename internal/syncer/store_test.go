package syncer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rc-medicall/backend/internal/storage"
	"github.com/rc-medicall/backend/internal/storage/models"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func newSQLiteStore(t *testing.T) *storage.CacheRepository {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewCacheRepository(db)
}

func TestStores(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"redis":  redisStore,
		"sqlite": newSQLiteStore(t),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Load(ctx, "rc_medicall_missing")
			assert.ErrorIs(t, err, ErrMiss)

			require.NoError(t, store.Save(ctx, "rc_medicall_a", []byte(`1`)))
			require.NoError(t, store.Save(ctx, "rc_medicall_a", []byte(`2`)))
			require.NoError(t, store.Save(ctx, "rc_medicall_b", []byte(`3`)))
			require.NoError(t, store.Save(ctx, "other_c", []byte(`4`)))

			v, err := store.Load(ctx, "rc_medicall_a")
			require.NoError(t, err)
			assert.Equal(t, []byte(`2`), v)

			require.NoError(t, store.Delete(ctx, "rc_medicall_b"))
			_, err = store.Load(ctx, "rc_medicall_b")
			assert.ErrorIs(t, err, ErrMiss)

			require.NoError(t, store.Clear(ctx, KeyPrefix))
			_, err = store.Load(ctx, "rc_medicall_a")
			assert.ErrorIs(t, err, ErrMiss)
			v, err = store.Load(ctx, "other_c")
			require.NoError(t, err)
			assert.Equal(t, []byte(`4`), v)
		})
	}
}

func TestCacheKeysAreVersioned(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	v5 := NewCache(store, "v5")
	require.NoError(t, v5.SaveContacts(ctx, []models.Contact{{ID: "med-1", Name: "DR. ALFA"}}))
	require.NoError(t, v5.SetSidebarCollapsed(ctx, true))
	assert.True(t, mr.Exists("rc_medicall_cache_doctors_v5"))
	assert.True(t, mr.Exists("rc_medicall_sidebar_collapsed"))

	snap, ok, err := v5.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "DR. ALFA", snap.Contacts[0].Name)
	assert.NotNil(t, snap.TimeOff)
	assert.NotNil(t, snap.Procedures)

	v6 := NewCache(store, "v6")
	_, ok, err = v6.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	collapsed, err := v6.SidebarCollapsed(ctx)
	require.NoError(t, err)
	assert.True(t, collapsed)
}

func fullSnapshot() *Snapshot {
	schedule := models.InactiveSchedule()
	schedule[0] = models.ScheduleSlot{Day: "LUNES", Time: "09:00 - 14:00", Active: true}
	schedule[3] = models.ScheduleSlot{Day: "JUEVES", Time: "16:00 - 19:00", Active: true}

	return &Snapshot{
		Contacts: []models.Contact{{
			ID:                 "med-1",
			Category:           models.CategoryMedico,
			Executive:          "ANA",
			Name:               "DR. ÁLVARO NÚÑEZ",
			Specialty:          "CARDIOLOGÍA",
			SubSpecialty:       "ELECTROFISIOLOGÍA",
			Address:            "AV. REFORMA 100",
			Hospital:           "HOSPITAL ÁNGELES",
			OfficeNumber:       "305",
			Floor:              "3",
			Phone:              "5550001111",
			Email:              "alvaro@example.com",
			Cedula:             "1234567",
			BirthDate:          "1970-03-15",
			Classification:     models.ClassificationA,
			SocialStyle:        models.SocialAnalitico,
			AttitudinalSegment: models.SegmentInnovacion,
			ImportantNotes:     "prefiere llamadas por la tarde",
			IsInsuranceDoctor:  true,
			Schedule:           schedule,
			Visits: []models.Visit{
				{
					ID:                 "v-1",
					Date:               "2024-06-05",
					Time:               "10:00",
					Note:               "presentación de catéter",
					Objective:          "cotizar",
					FollowUp:           "enviar propuesta",
					Outcome:            models.OutcomeCotizacion,
					Status:             models.VisitCompleted,
					Priority:           models.PriorityAlta,
					MaterialsDelivered: "folleto",
					InterestLevel:      4,
					NextStepType:       models.NextStepWhatsapp,
				},
				{ID: "v-2", Date: "2024-06-12", Note: "", Outcome: models.OutcomeCita, Status: models.VisitPlanned},
			},
		}},
		TimeOff: []models.TimeOffEvent{{
			ID: "to-1", Executive: "ANA", StartDate: "2024-06-10", EndDate: "2024-06-11",
			Duration: models.DurationFullDay, Reason: models.ReasonVacaciones, Notes: "viaje",
		}},
		Procedures: []models.Procedure{{
			ID: "proc-1", Date: "2024-06-20", Time: "08:00", Hospital: "HOSPITAL ÁNGELES",
			DoctorID: "med-1", DoctorName: "DR. ÁLVARO NÚÑEZ", ProcedureType: "ablación",
			PaymentType: models.PaymentAseguradora, Cost: 1500.5, Commission: 150.25,
			Technician: "LUIS", Notes: "urgente", Status: models.ProcedureScheduled,
		}},
	}
}

func TestCacheRoundTripKeepsEveryField(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"redis":  redisStore,
		"sqlite": newSQLiteStore(t),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			cache := NewCache(store, "v5")
			in := fullSnapshot()

			require.NoError(t, cache.SaveSnapshot(ctx, in))
			out, ok, err := cache.LoadSnapshot(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, in, out)

			require.NoError(t, cache.SaveUser(ctx, models.User{Name: "Ana", Role: models.RoleAdmin}))
			u, err := cache.LoadUser(ctx)
			require.NoError(t, err)
			assert.Equal(t, &models.User{Name: "Ana", Role: models.RoleAdmin}, u)
		})
	}
}

func TestCacheRejectsCorruptEntries(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("rc_medicall_cache_doctors_v5", "{not json"))

	_, _, err := NewCache(store, "v5").LoadSnapshot(context.Background())
	assert.Error(t, err)
}
