/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"server/internal/nlog"
	"server/internal/repository"
)

// The permission gate of the chat: decides who may read, write and moderate
// inside a group. Membership is looked up fresh on every call, so revoking a
// membership takes effect on the next action, not on the next reconnect.
type MembershipService interface {
	IsMember(userUuid, groupUuid string) (bool, error)   // Does the user belong to the group?
	MembersOf(groupUuid string) ([]string, error)        // UUIDs of every member of the group, online or not
	CanModerate(userUuid, groupUuid string) (bool, error) // May the user delete other members' messages?
}

type localMembershipService struct {
	groupRepository repository.GroupRepository // Repository for groups and the member relation
	logger          nlog.Logger                // Logs a format string
}

func NewLocalMembershipService(groupRepo repository.GroupRepository, logger nlog.Logger) MembershipService {
	return &localMembershipService{
		groupRepository: groupRepo,
		logger:          logger,
	}
}

func (m *localMembershipService) Logf(format string, v ...any) {
	m.logger.Logf(format, v...)
}

func (m *localMembershipService) IsMember(userUuid, groupUuid string) (bool, error) {
	return m.groupRepository.IsMember(groupUuid, userUuid)
}

func (m *localMembershipService) MembersOf(groupUuid string) ([]string, error) {
	members, err := m.groupRepository.GetMembers(groupUuid)
	if err != nil {
		return nil, err
	}

	uuids := make([]string, 0, len(members))
	for _, member := range members {
		uuids = append(uuids, member.UUID)
	}
	return uuids, nil
}

func (m *localMembershipService) CanModerate(userUuid, groupUuid string) (bool, error) {
	group, err := m.groupRepository.GetByUUID(groupUuid)
	if err != nil {
		return false, err
	}
	return group.LeaderUUID == userUuid, nil
}
