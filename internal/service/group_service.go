/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"fmt"
	"time"

	"server/internal/entity"
	"server/internal/nlog"
	"server/internal/repository"

	"github.com/google/uuid"
)

// Service used for the creation and management of study groups
type GroupService interface {
	CreateGroup(name string, leader *entity.User) (*entity.StudyGroup, error) // Creates a group with the given user as leader and first member
	GetGroups() ([]*entity.StudyGroup, error)                                 // Retrieves every group with its members
	GetGroupByUUID(groupUuid string) (*entity.StudyGroup, error)              // Retrieves one group
	Join(groupUuid, userUuid string) error                                    // Adds the user to the group's members
	Leave(groupUuid, userUuid string) error                                   // Removes the user from the group's members
	DeleteGroup(groupUuid, userUuid string) error                             // Removes the group, allowed to the leader only
}

type localGroupService struct {
	groupRepository repository.GroupRepository // Repository for groups and the member relation
	logger          nlog.Logger                // Logs a format string
}

func NewLocalGroupService(groupRepo repository.GroupRepository, logger nlog.Logger) GroupService {
	return &localGroupService{
		groupRepository: groupRepo,
		logger:          logger,
	}
}

func (g *localGroupService) Logf(format string, v ...any) {
	g.logger.Logf(format, v...)
}

func (g *localGroupService) CreateGroup(name string, leader *entity.User) (*entity.StudyGroup, error) {
	group := &entity.StudyGroup{
		UUID:       uuid.New().String(),
		Name:       name,
		LeaderUUID: leader.UUID,
		CreatedAt:  time.Now(),
		Members:    []*entity.User{leader},
	}
	if err := g.groupRepository.Create(group); err != nil {
		return nil, err
	}
	g.Logf("Group %s created by %s", group.Name, leader.Username)
	return group, nil
}

func (g *localGroupService) GetGroups() ([]*entity.StudyGroup, error) {
	return g.groupRepository.GetAll()
}

func (g *localGroupService) GetGroupByUUID(groupUuid string) (*entity.StudyGroup, error) {
	return g.groupRepository.GetByUUID(groupUuid)
}

func (g *localGroupService) Join(groupUuid, userUuid string) error {
	if _, err := g.groupRepository.GetByUUID(groupUuid); err != nil {
		return err
	}
	return g.groupRepository.AddUser(groupUuid, &entity.User{UUID: userUuid})
}

func (g *localGroupService) Leave(groupUuid, userUuid string) error {
	group, err := g.groupRepository.GetByUUID(groupUuid)
	if err != nil {
		return err
	}
	if group.LeaderUUID == userUuid {
		return fmt.Errorf("The leader cannot leave the group, delete it instead")
	}
	return g.groupRepository.RemoveUser(groupUuid, userUuid)
}

func (g *localGroupService) DeleteGroup(groupUuid, userUuid string) error {
	group, err := g.groupRepository.GetByUUID(groupUuid)
	if err != nil {
		return err
	}
	if group.LeaderUUID != userUuid {
		return fmt.Errorf("Only the leader can delete the group")
	}
	return g.groupRepository.SoftDelete(groupUuid)
}
