package login

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type UserDataCacheID struct {
	uuid.UUID
}

func ParseUserDataCacheID(value string) (*UserDataCacheID, error) {
	UUID, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &UserDataCacheID{UUID}, nil
}

// UserDataCache temporarily holds UserData between the OAuth callback and a later
// request, e.g. a signup form that completes a partial profile. Entries expire
// automatically after the configured age.
type UserDataCache struct {
	cache *gocache.Cache
}

// NewUserDataCache creates a cache whose entries live for the specified duration.
func NewUserDataCache(maxAge time.Duration) *UserDataCache {
	return &UserDataCache{
		cache: gocache.New(maxAge, maxAge),
	}
}

// Store caches the user data and returns the id it can be retrieved with later.
func (c *UserDataCache) Store(data *UserData) (*UserDataCacheID, error) {
	if data == nil {
		return nil, fmt.Errorf("cannot cache nil user data")
	}
	id := UserDataCacheID{uuid.New()}
	c.cache.Set(id.String(), data, gocache.DefaultExpiration)
	return &id, nil
}

// Get returns previously cached user data, or an error if the id is unknown or the
// entry already expired.
func (c *UserDataCache) Get(id *UserDataCacheID) (*UserData, error) {
	value, ok := c.cache.Get(id.String())
	if !ok {
		return nil, fmt.Errorf("no cached user data for id %q", id)
	}
	data, ok := value.(*UserData)
	if !ok {
		return nil, fmt.Errorf("invalid cached user data for id %q", id)
	}
	return data, nil
}

// Delete removes a single cache entry. Deleting an unknown id is a no-op.
func (c *UserDataCache) Delete(id *UserDataCacheID) {
	c.cache.Delete(id.String())
}
