// Package mocks provides gomock implementations of the auth ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	gw := mocks.NewMockIdentityGateway(ctrl)
//	gw.EXPECT().Authenticate(gomock.Any(), gomock.Any()).Return(result, nil)
package mocks

// Generate mock for IdentityGateway interface from internal/ports package.
// This creates MockIdentityGateway with methods for all IdentityGateway interface methods:
// Authenticate
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_gateway_mock.go github.com/target/campus-auth/internal/ports IdentityGateway

// Generate mock for SessionPersistence interface from internal/ports package.
// This creates MockSessionPersistence with methods for all SessionPersistence interface methods:
// Save, Load, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_persistence_mock.go github.com/target/campus-auth/internal/ports SessionPersistence
