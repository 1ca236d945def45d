package repository

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// MemberRepository lee los miembros del backend principal
// (tablas member / member_role_list / song_like).
type MemberRepository struct {
	gdb *gorm.DB
}

func NewMemberRepository(gdb *gorm.DB) *MemberRepository {
	return &MemberRepository{gdb: gdb}
}

// ActiveUsersWithFavorites devuelve member_id -> ids de canciones con like,
// solo para miembros con rol USER. Lo usa el warming del worker.
func (r *MemberRepository) ActiveUsersWithFavorites(ctx context.Context) (map[string][]int64, error) {
	var memberIDs []int64
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT DISTINCT m.member_id
		FROM member m
		JOIN member_role_list mrl ON m.member_id = mrl.id
		WHERE mrl.role = 'USER'
	`).Scan(&memberIDs).Error
	if err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}

	out := make(map[string][]int64, len(memberIDs))
	for _, id := range memberIDs {
		var songIDs []int64
		err := r.gdb.WithContext(ctx).Raw(
			`SELECT sl.song_id FROM song_like sl WHERE sl.member_id = ?`, id,
		).Scan(&songIDs).Error
		if err != nil {
			return nil, fmt.Errorf("favorites of member %d: %w", id, err)
		}
		out[strconv.FormatInt(id, 10)] = songIDs
	}
	return out, nil
}
