// ABOUTME: Role group and role config queries
// ABOUTME: Group names are unique per guild and role ids unique globally

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RoleGroups lists a guild's role groups with their role configs.
func (s *Store) RoleGroups(ctx context.Context, guildID uint64) ([]*RoleGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, name, exclusive, required_role_id, created_at, updated_at
		 FROM role_groups WHERE guild_id = ? ORDER BY name`, i64(guildID))
	if err != nil {
		return nil, fmt.Errorf("querying role groups: %w", err)
	}
	defer rows.Close()

	var groups []*RoleGroup
	for rows.Next() {
		rg, err := scanRoleGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, rg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rg := range groups {
		if rg.Roles, err = s.roleConfigs(ctx, rg.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// RoleGroupByName finds a guild's role group by its case-insensitive
// name, or ErrNotFound. The group's role configs are loaded.
func (s *Store) RoleGroupByName(ctx context.Context, guildID uint64, name string) (*RoleGroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, guild_id, name, exclusive, required_role_id, created_at, updated_at
		 FROM role_groups WHERE guild_id = ? AND name = ?`, i64(guildID), name)

	rg, err := scanRoleGroup(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying role group: %w", err)
	}
	if rg.Roles, err = s.roleConfigs(ctx, rg.ID); err != nil {
		return nil, err
	}
	return rg, nil
}

// RoleConfigByRole returns the role config registered for an external
// role id anywhere, or ErrNotFound. A role may be registered once
// globally.
func (s *Store) RoleConfigByRole(ctx context.Context, roleID uint64) (*RoleConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, name, role_id, created_at, updated_at
		 FROM role_configs WHERE role_id = ?`, i64(roleID))

	rc, err := scanRoleConfig(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying role config: %w", err)
	}
	return rc, nil
}

func (s *Store) roleConfigs(ctx context.Context, groupID string) ([]*RoleConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, name, role_id, created_at, updated_at
		 FROM role_configs WHERE group_id = ? ORDER BY name`, groupID)
	if err != nil {
		return nil, fmt.Errorf("querying role configs: %w", err)
	}
	defer rows.Close()

	var out []*RoleConfig
	for rows.Next() {
		rc, err := scanRoleConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func scanRoleGroup(row scanner) (*RoleGroup, error) {
	var rg RoleGroup
	var guildID, requiredRole int64
	var createdAt, updatedAt string

	err := row.Scan(&rg.ID, &guildID, &rg.Name, &rg.Exclusive, &requiredRole, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rg.GuildID, rg.RequiredRoleID = u64(guildID), u64(requiredRole)
	if err := rg.scanTimes(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &rg, nil
}

func scanRoleConfig(row scanner) (*RoleConfig, error) {
	var rc RoleConfig
	var roleID int64
	var createdAt, updatedAt string

	err := row.Scan(&rc.ID, &rc.GroupID, &rc.Name, &roleID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rc.RoleID = u64(roleID)
	if err := rc.scanTimes(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &rc, nil
}
