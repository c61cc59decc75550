package mocks

//go:generate mockgen -destination=./mock_store.go -package=mocks github.com/rxtech-lab/argo-ledger/internal/store Store
