package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/forgo/mentora/api/internal/service"
)

// FeishuDirectory resolves user ids to display names and email addresses
// through the Feishu contact API. Resolved users are cached for the
// process lifetime; directory data changes rarely enough that staleness
// is acceptable.
type FeishuDirectory struct {
	client *FeishuClient

	mu    sync.RWMutex
	cache map[string]*service.Participant
}

// NewFeishuDirectory creates a new directory client
func NewFeishuDirectory(client *FeishuClient) *FeishuDirectory {
	return &FeishuDirectory{
		client: client,
		cache:  make(map[string]*service.Participant),
	}
}

type userData struct {
	User struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Email  string `json:"enterprise_email"`
	} `json:"user"`
}

// Resolve looks up one user
func (d *FeishuDirectory) Resolve(ctx context.Context, userID string) (*service.Participant, error) {
	d.mu.RLock()
	cached, ok := d.cache[userID]
	d.mu.RUnlock()
	if ok {
		return cached, nil
	}

	path := fmt.Sprintf("/open-apis/contact/v3/users/%s?user_id_type=user_id", url.PathEscape(userID))
	var data userData
	if err := d.client.doJSON(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, fmt.Errorf("resolving user %s: %w", userID, err)
	}

	p := &service.Participant{
		ID:          data.User.UserID,
		DisplayName: data.User.Name,
		Email:       data.User.Email,
	}

	d.mu.Lock()
	d.cache[userID] = p
	d.mu.Unlock()
	return p, nil
}
