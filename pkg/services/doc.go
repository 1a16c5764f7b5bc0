// Package services keeps one shared, connected handle per backend kind.
//
// Backend packages register a Connector for their kind. The first GetService call for a
// kind connects it while later and concurrent callers receive that same handle:
//
//	reg := services.NewRegistry(log, nil)
//	_ = reg.Register(services.Binding{Kind: services.TimeSeries, Connector: connect})
//	svc, err := reg.GetService(ctx, services.TimeSeries)
//
// Each kind moves Uninitialized → Connecting → Ready. A failed connect returns a
// *BackendError and leaves the kind Uninitialized. A Ready handle is never replaced
// behind the caller's back; Shutdown is the only way back to Uninitialized.
package services
