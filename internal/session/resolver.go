package session

// Resolver maps a caller-supplied target (either a session id or a raw
// device UDID) to a device identity. It holds no state of its own and always
// consults the one store it was constructed with. There is no fallback
// search: if the store does not know the session, resolution fails with
// NotFoundError rather than guessing.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the device UDID for target. Inputs that are not shaped like
// a session id are passed through unchanged, so capability modules accept
// either kind of identifier through one parameter.
func (r *Resolver) Resolve(target string) (string, error) {
	if !IsSessionID(target) {
		return target, nil
	}
	return r.store.DeviceID(target)
}
