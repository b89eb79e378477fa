package store

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"userportal/api/internal/models"
)

// MemoryUsers is an in-process UserStore. It keeps raw documents and answers
// filters through the shared matcher, so structural queries behave exactly as
// they would against MongoDB. Useful for tests and for running the training
// scenario without a database.
type MemoryUsers struct {
	mu    sync.RWMutex
	docs  map[string]bson.M
	order []string
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{docs: make(map[string]bson.M)}
}

func (m *MemoryUsers) Insert(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// username and email stay unique across active and inactive records
	for _, doc := range m.docs {
		if doc["username"] == user.Username || doc["email"] == user.Email {
			return models.User{}, ErrDuplicate
		}
	}

	doc := docFromUser(user)
	m.docs[user.ID] = doc
	m.order = append(m.order, user.ID)
	return userFromDoc(doc), nil
}

func (m *MemoryUsers) FindOne(_ context.Context, filter bson.M) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if Match(m.docs[id], filter) {
			return userFromDoc(m.docs[id]), nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *MemoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return userFromDoc(doc), nil
}

func (m *MemoryUsers) Find(_ context.Context, filter bson.M, opts ListOptions) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.User, 0)
	ids := m.order
	if opts.SortNewestFirst {
		ids = make([]string, len(m.order))
		for i, id := range m.order {
			ids[len(m.order)-1-i] = id
		}
	}
	for _, id := range ids {
		if Match(m.docs[id], filter) {
			matched = append(matched, userFromDoc(m.docs[id]))
		}
	}

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(matched)) {
			return nil, nil
		}
		matched = matched[opts.Skip:]
	}
	if opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (m *MemoryUsers) Count(_ context.Context, filter bson.M) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, doc := range m.docs {
		if Match(doc, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryUsers) CountGroupBy(_ context.Context, filter bson.M, field string) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := make(map[string]int64)
	for _, doc := range m.docs {
		if !Match(doc, filter) {
			continue
		}
		key := ""
		if value, ok := lookupPath(doc, field); ok {
			if s, ok := value.(string); ok {
				key = s
			}
		}
		groups[key]++
	}
	return groups, nil
}

// UpdateByID applies a {$set: {...}} update and returns the new record.
// Dotted paths descend into embedded documents, creating them as needed.
func (m *MemoryUsers) UpdateByID(_ context.Context, id string, update bson.M) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return models.User{}, ErrNotFound
	}

	if set, ok := asDocument(update["$set"]); ok {
		for path, value := range set {
			setPath(doc, path, value)
		}
	}
	return userFromDoc(doc), nil
}

func (m *MemoryUsers) Ping(context.Context) error { return nil }

func setPath(doc bson.M, path string, value any) {
	segments := splitPath(path)
	for i := 0; i < len(segments)-1; i++ {
		sub, ok := asDocument(doc[segments[i]])
		if !ok {
			sub = bson.M{}
			doc[segments[i]] = sub
		}
		doc = sub
	}
	doc[segments[len(segments)-1]] = value
}

func splitPath(path string) []string {
	segments := []string{}
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segments = append(segments, path[start:i])
			start = i + 1
		}
	}
	return append(segments, path[start:])
}

// MemoryFlags is the in-process FlagStore counterpart.
type MemoryFlags struct {
	mu    sync.RWMutex
	docs  map[string]bson.M
	order []string
}

func NewMemoryFlags() *MemoryFlags {
	return &MemoryFlags{docs: make(map[string]bson.M)}
}

func (m *MemoryFlags) Insert(_ context.Context, flag models.Flag) (models.Flag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range m.docs {
		if doc["name"] == flag.Name {
			return models.Flag{}, ErrDuplicate
		}
	}
	m.docs[flag.ID] = docFromFlag(flag)
	m.order = append(m.order, flag.ID)
	return flag, nil
}

func (m *MemoryFlags) Find(_ context.Context, filter bson.M) ([]models.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flags := make([]models.Flag, 0)
	for _, id := range m.order {
		if Match(m.docs[id], filter) {
			flags = append(flags, flagFromDoc(m.docs[id]))
		}
	}
	return flags, nil
}

func (m *MemoryFlags) FindByID(_ context.Context, id string) (models.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return models.Flag{}, ErrNotFound
	}
	return flagFromDoc(doc), nil
}

func docFromUser(u models.User) bson.M {
	permissions := make([]any, len(u.Permissions))
	for i, p := range u.Permissions {
		permissions[i] = string(p)
	}

	doc := bson.M{
		"_id":         u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"password":    u.PasswordHash,
		"role":        string(u.Role),
		"permissions": permissions,
		"profile": bson.M{
			"firstName":  u.Profile.FirstName,
			"lastName":   u.Profile.LastName,
			"department": u.Profile.Department,
			"position":   u.Profile.Position,
			"phone":      u.Profile.Phone,
		},
		"isActive":  u.IsActive,
		"createdAt": u.CreatedAt,
	}
	if u.LastLogin != nil {
		doc["lastLogin"] = *u.LastLogin
	}
	return doc
}

func userFromDoc(doc bson.M) models.User {
	user := models.User{
		ID:           docString(doc, "_id"),
		Username:     docString(doc, "username"),
		Email:        docString(doc, "email"),
		PasswordHash: docString(doc, "password"),
		Role:         models.Role(docString(doc, "role")),
	}
	if perms, ok := asSlice(doc["permissions"]); ok {
		for _, p := range perms {
			if s, ok := p.(string); ok {
				user.Permissions = append(user.Permissions, models.Permission(s))
			}
		}
	}
	if profile, ok := asDocument(doc["profile"]); ok {
		user.Profile = models.Profile{
			FirstName:  docString(profile, "firstName"),
			LastName:   docString(profile, "lastName"),
			Department: docString(profile, "department"),
			Position:   docString(profile, "position"),
			Phone:      docString(profile, "phone"),
		}
	}
	if active, ok := doc["isActive"].(bool); ok {
		user.IsActive = active
	}
	if last, ok := doc["lastLogin"].(time.Time); ok {
		user.LastLogin = &last
	}
	if created, ok := doc["createdAt"].(time.Time); ok {
		user.CreatedAt = created
	}
	return user
}

func docFromFlag(f models.Flag) bson.M {
	return bson.M{
		"_id":         f.ID,
		"name":        f.Name,
		"value":       f.Value,
		"description": f.Description,
		"category":    string(f.Category),
		"points":      f.Points,
		"isActive":    f.IsActive,
		"createdAt":   f.CreatedAt,
	}
}

func flagFromDoc(doc bson.M) models.Flag {
	flag := models.Flag{
		ID:          docString(doc, "_id"),
		Name:        docString(doc, "name"),
		Value:       docString(doc, "value"),
		Description: docString(doc, "description"),
		Category:    models.FlagCategory(docString(doc, "category")),
	}
	if points, ok := asFloat(doc["points"]); ok {
		flag.Points = int(points)
	}
	if active, ok := doc["isActive"].(bool); ok {
		flag.IsActive = active
	}
	if created, ok := doc["createdAt"].(time.Time); ok {
		flag.CreatedAt = created
	}
	return flag
}

func docString(doc bson.M, key string) string {
	s, _ := doc[key].(string)
	return s
}
