package app

import (
	"github.com/Breadstickhemmo/42Brat/internal/credstore"
	"go.uber.org/zap"
)

// PermissionStore persists the notification decision.
type PermissionStore interface {
	LoadPermission() (credstore.Permission, error)
	SavePermission(credstore.Permission) error
}

// permission is the in-memory notification decision backed by a store.
type permission struct {
	store PermissionStore
	value credstore.Permission
	log   *zap.Logger
}

func loadPermission(store PermissionStore, log *zap.Logger) *permission {
	p := &permission{store: store, log: log}
	if store == nil {
		return p
	}
	v, err := store.LoadPermission()
	if err != nil {
		log.Warn("reading notification preference", zap.Error(err))
	}
	p.value = v
	return p
}

// Decided implements realtime.Permission.
func (p *permission) Decided() bool { return p.value != credstore.PermissionUndecided }

func (p *permission) Granted() bool { return p.value == credstore.PermissionGranted }

func (p *permission) Set(v credstore.Permission) {
	p.value = v
	if p.store == nil {
		return
	}
	if err := p.store.SavePermission(v); err != nil {
		p.log.Warn("saving notification preference", zap.Error(err))
	}
}
