package binding

// Field names a direct projection out of a source model, the leaf from
// which lens chains grow. get receives a non-nil source and returns a
// pointer to the field; it must not return nil.
func Field[S, T any](name string, get func(*S) *T) Lens[S, T] {
	return &fieldLens[S, T]{name: name, get: get, key: UniqueKey()}
}

type fieldLens[S, T any] struct {
	name string
	get  func(*S) *T
	key  StoreKey
}

func (l *fieldLens[S, T]) View(source *S, fn func(*T)) {
	if source == nil {
		fn(nil)
		return
	}
	fn(l.get(source))
}

func (l *fieldLens[S, T]) Key() StoreKey { return l.key }

func (l *fieldLens[S, T]) String() string { return l.name }

// Then composes two lenses. Failure short-circuits: when outer fails,
// inner never runs.
func Then[S, M, T any](outer Lens[S, M], inner Lens[M, T]) Lens[S, T] {
	return &thenLens[S, M, T]{outer: outer, inner: inner, key: UniqueKey()}
}

type thenLens[S, M, T any] struct {
	outer Lens[S, M]
	inner Lens[M, T]
	key   StoreKey
}

func (l *thenLens[S, M, T]) View(source *S, fn func(*T)) {
	l.outer.View(source, func(mid *M) {
		if mid == nil {
			fn(nil)
			return
		}
		l.inner.View(mid, fn)
	})
}

func (l *thenLens[S, M, T]) Key() StoreKey { return l.key }

// Map post-processes a lens with a pure function. The continuation sees a
// fresh owned value each view, never a pointer into the model.
func Map[S, T, U any](lens Lens[S, T], project func(*T) U) Lens[S, U] {
	return &mapLens[S, T, U]{lens: lens, project: project, key: UniqueKey()}
}

type mapLens[S, T, U any] struct {
	lens    Lens[S, T]
	project func(*T) U
	key     StoreKey
}

func (l *mapLens[S, T, U]) View(source *S, fn func(*U)) {
	l.lens.View(source, func(t *T) {
		if t == nil {
			fn(nil)
			return
		}
		u := l.project(t)
		fn(&u)
	})
}

func (l *mapLens[S, T, U]) Key() StoreKey { return l.key }

// Index projects one element of a slice-valued lens. Out-of-range indices
// fail rather than panic: bound collections shrink underneath bindings,
// and the binding system treats failure as "gone".
func Index[S, T any](lens Lens[S, []T], index int) Lens[S, T] {
	return &indexLens[S, T]{lens: lens, index: index, key: UniqueKey()}
}

type indexLens[S, T any] struct {
	lens  Lens[S, []T]
	index int
	key   StoreKey
}

func (l *indexLens[S, T]) View(source *S, fn func(*T)) {
	l.lens.View(source, func(s *[]T) {
		if s == nil || l.index < 0 || l.index >= len(*s) {
			fn(nil)
			return
		}
		fn(&(*s)[l.index])
	})
}

func (l *indexLens[S, T]) Key() StoreKey { return l.key }

// Unwrap projects through a pointer-valued lens, failing on nil.
func Unwrap[S, T any](lens Lens[S, *T]) Lens[S, T] {
	return &unwrapLens[S, T]{lens: lens, key: UniqueKey()}
}

type unwrapLens[S, T any] struct {
	lens Lens[S, *T]
	key  StoreKey
}

func (l *unwrapLens[S, T]) View(source *S, fn func(*T)) {
	l.lens.View(source, func(p **T) {
		if p == nil || *p == nil {
			fn(nil)
			return
		}
		fn(*p)
	})
}

func (l *unwrapLens[S, T]) Key() StoreKey { return l.key }

type float interface {
	~float32 | ~float64
}

// Ratio divides the numerator lens by the denominator lens. Division is
// plain IEEE-754: a zero denominator yields an infinity or NaN, which
// flows to observers like any other value.
func Ratio[S any, F float](num, den Lens[S, F]) Lens[S, F] {
	return &ratioLens[S, F]{num: num, den: den, key: UniqueKey()}
}

type ratioLens[S any, F float] struct {
	num Lens[S, F]
	den Lens[S, F]
	key StoreKey
}

func (l *ratioLens[S, F]) View(source *S, fn func(*F)) {
	l.num.View(source, func(n *F) {
		if n == nil {
			fn(nil)
			return
		}
		l.den.View(source, func(d *F) {
			if d == nil {
				fn(nil)
				return
			}
			q := *n / *d
			fn(&q)
		})
	})
}

func (l *ratioLens[S, F]) Key() StoreKey { return l.key }

// Static always yields the same value. Its source is the unit type, which
// every node resolves, so it binds anywhere.
func Static[T any](value T) Lens[struct{}, T] {
	return &staticLens[T]{value: value, key: UniqueKey()}
}

type staticLens[T any] struct {
	value T
	key   StoreKey
}

func (l *staticLens[T]) View(_ *struct{}, fn func(*T)) {
	fn(&l.value)
}

func (l *staticLens[T]) Key() StoreKey { return l.key }

// Or combines two bool lenses with logical or. Either side failing fails
// the combination.
func Or[S any](a, b Lens[S, bool]) Lens[S, bool] {
	return &boolLens[S]{a: a, b: b, or: true, key: UniqueKey()}
}

// And combines two bool lenses with logical and.
func And[S any](a, b Lens[S, bool]) Lens[S, bool] {
	return &boolLens[S]{a: a, b: b, key: UniqueKey()}
}

type boolLens[S any] struct {
	a, b Lens[S, bool]
	or   bool
	key  StoreKey
}

func (l *boolLens[S]) View(source *S, fn func(*bool)) {
	l.a.View(source, func(av *bool) {
		if av == nil {
			fn(nil)
			return
		}
		l.b.View(source, func(bv *bool) {
			if bv == nil {
				fn(nil)
				return
			}
			var v bool
			if l.or {
				v = *av || *bv
			} else {
				v = *av && *bv
			}
			fn(&v)
		})
	})
}

func (l *boolLens[S]) Key() StoreKey { return l.key }
