package database

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type txKey struct{}

type txState struct {
	tx    *gorm.DB
	mu    sync.Mutex
	hooks []func(ctx context.Context)
}

func stateFrom(ctx context.Context) *txState {
	state, _ := ctx.Value(txKey{}).(*txState)
	return state
}

// RunInTx runs fn inside a transaction carried by ctx. Nested calls join
// the outer transaction. Hooks registered with AfterCommit run once the
// outermost transaction has committed, with a context that is no longer
// bound to it.
func RunInTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	if stateFrom(ctx) != nil {
		return fn(ctx)
	}

	state := &txState{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state.tx = tx
		return fn(context.WithValue(ctx, txKey{}, state))
	})
	if err != nil {
		return err
	}

	state.mu.Lock()
	hooks := state.hooks
	state.hooks = nil
	state.mu.Unlock()
	for _, h := range hooks {
		h(ctx)
	}
	return nil
}

// Conn returns the transaction bound to ctx, or db scoped to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if state := stateFrom(ctx); state != nil && state.tx != nil {
		return state.tx
	}
	return db.WithContext(ctx)
}

// AfterCommit defers fn until the surrounding transaction commits. Outside a
// transaction fn runs immediately. Rolled back transactions drop their hooks.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	state := stateFrom(ctx)
	if state == nil {
		fn(ctx)
		return
	}
	state.mu.Lock()
	state.hooks = append(state.hooks, fn)
	state.mu.Unlock()
}
