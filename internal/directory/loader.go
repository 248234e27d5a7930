// internal/directory/loader.go

package directory

import (
	"context"
	"errors"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

const (
	loaderBatchCapacity = 200
	loaderWait          = 2 * time.Millisecond
)

// ProfileLoader resolves many profiles through batched directory lookups.
// A loader caches what it resolved, so build one per request.
type ProfileLoader struct {
	loader *dataloader.Loader[int64, *UserProfile]
}

// NewProfileLoader creates a loader over dir
func NewProfileLoader(dir Directory) *ProfileLoader {
	return &ProfileLoader{
		loader: dataloader.NewBatchedLoader(
			profileBatchFn(dir),
			dataloader.WithBatchCapacity[int64, *UserProfile](loaderBatchCapacity),
			dataloader.WithWait[int64, *UserProfile](loaderWait),
		),
	}
}

// Load resolves a single profile.
func (l *ProfileLoader) Load(ctx context.Context, id int64) (*UserProfile, error) {
	return l.loader.Load(ctx, id)()
}

// LoadMany resolves ids to profiles. Users missing from the directory are
// left out of the result; any other failure is returned.
func (l *ProfileLoader) LoadMany(ctx context.Context, ids []int64) (map[int64]*UserProfile, error) {
	out := make(map[int64]*UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	profiles, errs := l.loader.LoadMany(ctx, ids)()
	for i, id := range ids {
		if i < len(errs) && errs[i] != nil {
			if errors.Is(errs[i], ErrUserNotFound) {
				continue
			}
			return nil, errs[i]
		}
		if i < len(profiles) && profiles[i] != nil {
			out[id] = profiles[i]
		}
	}
	return out, nil
}

func profileBatchFn(dir Directory) dataloader.BatchFunc[int64, *UserProfile] {
	return func(ctx context.Context, keys []int64) []*dataloader.Result[*UserProfile] {
		results := make([]*dataloader.Result[*UserProfile], len(keys))

		users, err := dir.GetUsers(ctx, keys)
		for i, key := range keys {
			switch {
			case err != nil:
				results[i] = &dataloader.Result[*UserProfile]{Error: err}
			case users[key] == nil:
				results[i] = &dataloader.Result[*UserProfile]{Error: ErrUserNotFound}
			default:
				results[i] = &dataloader.Result[*UserProfile]{Data: users[key]}
			}
		}
		return results
	}
}
