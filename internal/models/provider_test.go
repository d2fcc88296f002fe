package models

import (
	"testing"

	"github.com/weldtech/weldwatch/internal/types"
	"go.uber.org/zap"
)

func TestProviderNotifiesOnRealChangeOnly(t *testing.T) {
	p := NewProvider(nil, zap.NewNop().Sugar())

	var notified []types.ActiveModel
	p.RegisterListener(func(m types.ActiveModel) {
		notified = append(notified, m)
	})

	a := types.ActiveModel{ID: 1, Name: "A", LowerLimit: 1, UpperLimit: 5}
	b := types.ActiveModel{ID: 2, Name: "B", LowerLimit: 2, UpperLimit: 6}
	aEdited := types.ActiveModel{ID: 1, Name: "A", LowerLimit: 1, UpperLimit: 7}

	p.Apply(a)
	p.Apply(a) // identical, must not notify
	p.Apply(b)
	p.Apply(aEdited) // same id as a, changed fields: must notify

	if len(notified) != 3 {
		t.Fatalf("got %d notifications, expected 3", len(notified))
	}
	if notified[0] != a || notified[1] != b || notified[2] != aEdited {
		t.Errorf("notifications = %+v, expected [a, b, aEdited]", notified)
	}
}

func TestLateListenerGetsCachedModel(t *testing.T) {
	p := NewProvider(nil, zap.NewNop().Sugar())

	m := types.ActiveModel{ID: 3, Name: "C", LowerLimit: 1.5, UpperLimit: 4.0}
	p.Apply(m)

	var got *types.ActiveModel
	p.RegisterListener(func(m types.ActiveModel) {
		got = &m
	})

	if got == nil || *got != m {
		t.Fatalf("late listener received %+v, expected cached %+v", got, m)
	}

	cached, ok := p.CachedModel()
	if !ok || cached != m {
		t.Errorf("CachedModel() = %+v, %v, expected %+v, true", cached, ok, m)
	}
}

func TestCachedModelEmptyBeforeFirstDelivery(t *testing.T) {
	p := NewProvider(nil, zap.NewNop().Sugar())
	if _, ok := p.CachedModel(); ok {
		t.Error("CachedModel() reported ok before any model was delivered")
	}
}

func TestStoreActiveModelRoundTrip(t *testing.T) {
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.ActiveModel(); err != nil || ok {
		t.Fatalf("ActiveModel on empty store = ok=%v err=%v, expected none", ok, err)
	}

	id1, err := store.SaveModel(types.ActiveModel{Name: "BRKT-A", ModelType: "bracket", LowerLimit: 1.5, UpperLimit: 4.0})
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	id2, err := store.SaveModel(types.ActiveModel{Name: "BRKT-B", ModelType: "bracket", LowerLimit: 2.0, UpperLimit: 5.0})
	if err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	if err := store.ActivateModel(id2); err != nil {
		t.Fatalf("ActivateModel: %v", err)
	}

	m, ok, err := store.ActiveModel()
	if err != nil || !ok {
		t.Fatalf("ActiveModel = ok=%v err=%v, expected a model", ok, err)
	}
	if m.ID != id2 || m.Name != "BRKT-B" || m.LowerLimit != 2.0 || m.UpperLimit != 5.0 {
		t.Errorf("active model = %+v, expected BRKT-B with limits 2-5", m)
	}

	// Editing the active model's limits must be visible on the next read.
	m.UpperLimit = 6.5
	if _, err := store.SaveModel(m); err != nil {
		t.Fatalf("SaveModel update: %v", err)
	}
	m2, _, err := store.ActiveModel()
	if err != nil {
		t.Fatalf("ActiveModel after edit: %v", err)
	}
	if m2.UpperLimit != 6.5 {
		t.Errorf("UpperLimit after edit = %v, expected 6.5", m2.UpperLimit)
	}

	models, err := store.ListModels()
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0].ID != id1 {
		t.Errorf("ListModels returned %d models, expected 2 ordered by id", len(models))
	}
}
