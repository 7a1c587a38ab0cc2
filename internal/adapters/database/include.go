package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

// loadMany batch-loads the children of parents with a single IN query and
// assigns each parent its (possibly empty) slice of children.
func loadMany[P, C any, K comparable](
	ctx context.Context,
	children *table[C],
	parents []*P,
	parentKey func(*P) K,
	childField string,
	childKey func(*C) K,
	assign func(*P, []*C),
) error {
	keys := make([]interface{}, 0, len(parents))
	seen := make(map[K]bool, len(parents))
	for _, p := range parents {
		k := parentKey(p)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	rows, err := children.findMany(ctx, query.FindArgs{
		Where: query.Where(childField, query.In(keys...)),
	})
	if err != nil {
		return err
	}

	grouped := make(map[K][]*C, len(keys))
	for _, c := range rows {
		k := childKey(c)
		grouped[k] = append(grouped[k], c)
	}
	for _, p := range parents {
		list := grouped[parentKey(p)]
		if list == nil {
			list = []*C{}
		}
		assign(p, list)
	}
	return nil
}

// loadOne batch-loads the single related row of each record, matching
// record keys against targetField. Records whose key is absent are left nil.
func loadOne[R, C any, K comparable](
	ctx context.Context,
	targets *table[C],
	records []*R,
	recordKey func(*R) K,
	targetField string,
	targetKey func(*C) K,
	assign func(*R, *C),
) error {
	keys := make([]interface{}, 0, len(records))
	seen := make(map[K]bool, len(records))
	for _, r := range records {
		k := recordKey(r)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	rows, err := targets.findMany(ctx, query.FindArgs{
		Where: query.Where(targetField, query.In(keys...)),
	})
	if err != nil {
		return err
	}

	byKey := make(map[K]*C, len(rows))
	for _, c := range rows {
		byKey[targetKey(c)] = c
	}
	for _, r := range records {
		if c, ok := byKey[recordKey(r)]; ok {
			assign(r, c)
		}
	}
	return nil
}

// scoped adds a parent constraint to caller-supplied find arguments.
func scoped(args query.FindArgs, field string, value interface{}) query.FindArgs {
	parent := query.Where(field, query.Eq(value))
	if args.Where.IsEmpty() {
		args.Where = parent
	} else {
		args.Where = query.And(args.Where, parent)
	}
	return args
}

// parentOf resolves the parent row referenced by the child with the given id.
// It returns nil when the child does not exist.
func parentOf[C, P any](ctx context.Context, children *table[C], id int, parents *table[P], fk func(*C) interface{}) (*P, error) {
	child, err := children.FindUnique(ctx, query.ByID(id))
	if err != nil || child == nil {
		return nil, err
	}
	return parents.FindUnique(ctx, query.ByID(fk(child)))
}
