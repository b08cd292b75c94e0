/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"errors"
	"testing"
	"time"

	"server/internal/entity"
)

func storeUser(t *testing.T, repo UserRepository, uuid, username string) *entity.User {
	t.Helper()
	user := &entity.User{
		UUID:      uuid,
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Now(),
	}
	if err := repo.Create(user); err != nil {
		t.Fatalf("Could not store the user {%v}", err)
	}
	return user
}

func TestGroupMembership(t *testing.T) {
	db := newTestDB(t)
	groups := NewSQLiteGroupRepository(db)
	users := NewSQLiteUserRepository(db)

	leader := storeUser(t, users, "user-l", "leader")
	member := storeUser(t, users, "user-a", "alice")

	group := &entity.StudyGroup{
		UUID:       "group-1",
		Name:       "Algorithms",
		LeaderUUID: leader.UUID,
		CreatedAt:  time.Now(),
		Members:    []*entity.User{leader},
	}
	if err := groups.Create(group); err != nil {
		t.Fatalf("Could not create the group {%v}", err)
	}

	if err := groups.AddUser("group-1", member); err != nil {
		t.Fatalf("Could not add the member {%v}", err)
	}

	isMember, err := groups.IsMember("group-1", "user-a")
	if err != nil || !isMember {
		t.Errorf("Expected user-a to be a member, got %v {%v}", isMember, err)
	}

	isMember, err = groups.IsMember("group-1", "user-x")
	if err != nil || isMember {
		t.Errorf("Expected user-x to be a stranger, got %v {%v}", isMember, err)
	}

	all, err := groups.GetMembers("group-1")
	if err != nil {
		t.Fatalf("Could not gather the members {%v}", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 members, got %d", len(all))
	}

	if err := groups.RemoveUser("group-1", "user-a"); err != nil {
		t.Fatalf("Could not remove the member {%v}", err)
	}
	isMember, _ = groups.IsMember("group-1", "user-a")
	if isMember {
		t.Errorf("Expected user-a to be gone after the removal")
	}
}

func TestGetGroupByUUIDMissing(t *testing.T) {
	groups := NewSQLiteGroupRepository(newTestDB(t))

	if _, err := groups.GetByUUID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
