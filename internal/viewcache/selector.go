package viewcache

// Selector matches cache keys for invalidation.
type Selector struct {
	kind   Kind
	scope  string
	key    Key
	scoped bool
	exact  bool
}

// All selects every entry of kind.
func All(kind Kind) Selector {
	return Selector{kind: kind}
}

// Scoped selects every variant of kind for one scope.
func Scoped(kind Kind, scope string) Selector {
	return Selector{kind: kind, scope: scope, scoped: true}
}

// Exact selects a single key.
func Exact(key Key) Selector {
	return Selector{kind: key.Kind, key: key, exact: true}
}

// Matches reports whether key is selected.
func (s Selector) Matches(key Key) bool {
	switch {
	case s.exact:
		return key == s.key
	case s.scoped:
		return key.Kind == s.kind && key.Scope == s.scope
	default:
		return key.Kind == s.kind
	}
}

func (s Selector) String() string {
	switch {
	case s.exact:
		return s.key.String()
	case s.scoped:
		return string(s.kind) + "/" + s.scope + "/*"
	default:
		return string(s.kind) + "/*"
	}
}
