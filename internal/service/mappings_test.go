package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"plantasset/internal/models"
)

type fakeRefresher struct {
	calls int
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	return nil
}

func mappingFixtures(repo *fakeRepo) (*models.Asset, *models.SignalType) {
	asset := &models.Asset{AssetID: uuid.New(), Name: "Pump 1"}
	repo.assets[asset.AssetID] = asset
	st := &models.SignalType{
		SignalTypeID: uuid.New(), SignalName: "Temperature", SignalUnit: "°C",
		MinThreshold: 10, MaxThreshold: 80, DefaultRegisterAddress: 40001,
	}
	repo.signalTypes[st.SignalTypeID] = st
	return asset, st
}

func TestMappings_CreateDenormalizesAndRefreshes(t *testing.T) {
	repo := newFakeRepo()
	asset, st := mappingFixtures(repo)
	cache := &fakeRefresher{}
	m := &Mappings{Repo: repo, Cache: cache}

	item, err := m.Create(context.Background(), CreateMappingInput{
		AssetID:      asset.AssetID,
		SignalTypeID: st.SignalTypeID,
		DeviceID:     uuid.New(),
		DevicePortID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.SignalName != "Temperature" || item.SignalUnit != "°C" {
		t.Fatalf("signal metadata not denormalized: %+v", item)
	}
	if item.RegisterAddress != 40001 {
		t.Fatalf("register=%d want default 40001", item.RegisterAddress)
	}
	if cache.calls != 1 {
		t.Fatalf("cache refresh calls=%d want 1", cache.calls)
	}
}

func TestMappings_CreateRejectsDuplicatePort(t *testing.T) {
	repo := newFakeRepo()
	asset, st := mappingFixtures(repo)
	m := &Mappings{Repo: repo, Cache: &fakeRefresher{}}

	in := CreateMappingInput{
		AssetID:      asset.AssetID,
		SignalTypeID: st.SignalTypeID,
		DeviceID:     uuid.New(),
		DevicePortID: uuid.New(),
	}
	if _, err := m.Create(context.Background(), in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := m.Create(context.Background(), in); !errors.Is(err, ErrDuplicateDevicePort) {
		t.Fatalf("duplicate port: err=%v", err)
	}
}

func TestMappings_CreateValidatesReferences(t *testing.T) {
	repo := newFakeRepo()
	asset, st := mappingFixtures(repo)
	m := &Mappings{Repo: repo}

	_, err := m.Create(context.Background(), CreateMappingInput{
		AssetID: uuid.New(), SignalTypeID: st.SignalTypeID,
		DeviceID: uuid.New(), DevicePortID: uuid.New(),
	})
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("missing asset: err=%v", err)
	}

	_, err = m.Create(context.Background(), CreateMappingInput{
		AssetID: asset.AssetID, SignalTypeID: uuid.New(),
		DeviceID: uuid.New(), DevicePortID: uuid.New(),
	})
	if !errors.Is(err, ErrSignalTypeNotFound) {
		t.Fatalf("missing signal type: err=%v", err)
	}
}

func TestMappings_DeleteRefreshes(t *testing.T) {
	repo := newFakeRepo()
	asset, st := mappingFixtures(repo)
	cache := &fakeRefresher{}
	m := &Mappings{Repo: repo, Cache: cache}

	item, err := m.Create(context.Background(), CreateMappingInput{
		AssetID: asset.AssetID, SignalTypeID: st.SignalTypeID,
		DeviceID: uuid.New(), DevicePortID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Delete(context.Background(), item.MappingID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.mappings) != 0 {
		t.Fatalf("mapping row survived delete")
	}
	if cache.calls != 2 {
		t.Fatalf("cache refresh calls=%d want 2", cache.calls)
	}
}
