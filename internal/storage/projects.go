package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ProjectStore resolves a project id to the workspace root it was registered with.
type ProjectStore interface {
	WorkspaceRoot(ctx context.Context, projectID string) (string, bool, error)
}

// Project is a registered workspace
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	WorkspaceRoot string    `json:"workspaceRoot"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProjectRepository is the sqlite ProjectStore
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a project repository over db
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Register records a workspace root and returns its project. Registering a root that
// already exists updates its name and returns the existing id.
func (r *ProjectRepository) Register(ctx context.Context, name, workspaceRoot string) (*Project, error) {
	root := filepath.Clean(workspaceRoot)
	now := time.Now().UTC()

	var project *Project
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var id, createdAt string
		err := tx.QueryRowContext(ctx,
			"SELECT id, created_at FROM projects WHERE workspace_root = ?", root,
		).Scan(&id, &createdAt)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			project = &Project{ID: uuid.NewString(), Name: name, WorkspaceRoot: root, CreatedAt: now, UpdatedAt: now}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO projects (id, name, workspace_root, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
				project.ID, name, root, now.Format(timeLayout), now.Format(timeLayout),
			)
			return err
		case err != nil:
			return err
		}

		created, _ := time.Parse(timeLayout, createdAt)
		project = &Project{ID: id, Name: name, WorkspaceRoot: root, CreatedAt: created, UpdatedAt: now}
		_, err = tx.ExecContext(ctx,
			"UPDATE projects SET name = ?, updated_at = ? WHERE id = ?",
			name, now.Format(timeLayout), id,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register project: %w", err)
	}
	return project, nil
}

// WorkspaceRoot returns the root registered under projectID
func (r *ProjectRepository) WorkspaceRoot(ctx context.Context, projectID string) (string, bool, error) {
	var root string
	err := r.db.conn.QueryRowContext(ctx,
		"SELECT workspace_root FROM projects WHERE id = ?", projectID,
	).Scan(&root)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up project %s: %w", projectID, err)
	}
	return root, true, nil
}

// List returns every registered project ordered by name
func (r *ProjectRepository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT id, name, workspace_root, created_at, updated_at FROM projects ORDER BY name, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var created, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.WorkspaceRoot, &created, &updated); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(timeLayout, created)
		p.UpdatedAt, _ = time.Parse(timeLayout, updated)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
