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

	"server/internal/entity"

	"gorm.io/gorm"
)

// This repository is used to manipulate the study groups and user-group relations in the system.
type GroupRepository interface {
	Create(group *entity.StudyGroup) error                // Inserts a group in the repository
	SoftDelete(uuid string) error                         // Deletes the group with the given uuid
	GetByUUID(uuid string) (*entity.StudyGroup, error)    // Retrieves the group with the given uuid
	GetAll() ([]*entity.StudyGroup, error)                // Retrieves all the groups, each WITH the list of members (users)
	GetMembers(uuid string) ([]*entity.User, error)       // Retrieves the members of the group with given uuid
	AddUser(uuid string, user *entity.User) error         // Adds a user to the group with given uuid
	RemoveUser(uuid, userUuid string) error               // Removes the user from the group with the given uuid
	IsMember(uuid, userUuid string) (bool, error)         // Checks whether the user belongs to the group
}

// Implementation of the repository using a SQLite DB
type SQLiteGroupRepository struct {
	db *gorm.DB
}

func NewSQLiteGroupRepository(db *gorm.DB) GroupRepository {
	return &SQLiteGroupRepository{db}
}

func (repo *SQLiteGroupRepository) Create(group *entity.StudyGroup) error {
	return repo.db.Omit("Members.*").Create(group).Error
}

func (repo *SQLiteGroupRepository) SoftDelete(uuid string) error {
	return repo.db.Where("UUID = ?", uuid).Delete(&entity.StudyGroup{}).Error
}

func (repo *SQLiteGroupRepository) GetByUUID(uuid string) (*entity.StudyGroup, error) {
	var group entity.StudyGroup
	err := repo.db.Where("UUID = ?", uuid).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &group, err
}

func (repo *SQLiteGroupRepository) GetAll() ([]*entity.StudyGroup, error) {
	var groups []*entity.StudyGroup
	err := repo.db.Preload("Members").Find(&groups).Error
	return groups, err
}

func (repo *SQLiteGroupRepository) GetMembers(uuid string) ([]*entity.User, error) {
	var group entity.StudyGroup
	err := repo.db.Preload("Members").Where("UUID = ?", uuid).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return group.Members, err
}

func (repo *SQLiteGroupRepository) AddUser(uuid string, user *entity.User) error {
	group := entity.StudyGroup{UUID: uuid}
	return repo.db.Model(&group).Association("Members").Append(user)
}

func (repo *SQLiteGroupRepository) RemoveUser(uuid, userUuid string) error {
	group := entity.StudyGroup{UUID: uuid}
	return repo.db.Model(&group).Association("Members").Delete(&entity.User{UUID: userUuid})
}

func (repo *SQLiteGroupRepository) IsMember(uuid, userUuid string) (bool, error) {
	var count int64
	err := repo.db.Table("group_members").
		Where("study_group_uuid = ? AND user_uuid = ?", uuid, userUuid).
		Count(&count).Error
	return count > 0, err
}
