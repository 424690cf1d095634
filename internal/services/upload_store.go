package services

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"lobbycast/internal/models"
)

// UploadStore saves uploaded files under the upload directory and records them
// in the file_uploads table
type UploadStore struct {
	database  *sql.DB
	uploadDir string
	baseURL   string
}

// NewUploadStore creates a new upload store and ensures the upload directory exists
func NewUploadStore(database *sql.DB, uploadDir, baseURL string) (*UploadStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &UploadStore{
		database:  database,
		uploadDir: uploadDir,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// UploadDir returns the root directory uploads are stored under
func (us *UploadStore) UploadDir() string {
	return us.uploadDir
}

// Save writes the file under uploadDir/subdirectory with a generated name,
// records it, and returns the stored record. The original extension is kept;
// the rest of the name is replaced so uploads can never collide or traverse.
func (us *UploadStore) Save(r io.Reader, originalFilename, subdirectory string, fileType models.FileType, uploadedBy string) (*models.FileUpload, error) {
	targetDir := us.uploadDir
	if subdirectory != "" {
		targetDir = filepath.Join(us.uploadDir, subdirectory)
		if err := os.MkdirAll(targetDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	storedName := uuid.New().String() + ext
	fullPath := filepath.Join(targetDir, storedName)

	out, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	relPath := storedName
	if subdirectory != "" {
		relPath = path.Join(subdirectory, storedName)
	}

	record := &models.FileUpload{
		OriginalFilename: originalFilename,
		StoredPath:       relPath,
		StorageURL:       us.PublicURL(relPath),
		FileType:         fileType,
		FileSize:         size,
		UploadedBy:       uploadedBy,
		CreatedAt:        time.Now(),
	}

	result, err := us.database.Exec(`
		INSERT INTO file_uploads (original_filename, stored_path, storage_url, file_type, file_size, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.OriginalFilename, record.StoredPath, record.StorageURL,
		string(record.FileType), record.FileSize, record.UploadedBy, record.CreatedAt,
	)
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to record file upload: %w", err)
	}
	record.ID, _ = result.LastInsertId()

	log.Printf("Stored upload: type=%s, path=%s, size=%d", fileType, relPath, size)
	return record, nil
}

// LatestByType returns the most recent upload of the given type, or nil
func (us *UploadStore) LatestByType(fileType models.FileType) (*models.FileUpload, error) {
	var record models.FileUpload
	var fileTypeStr string
	var storageURL sql.NullString

	err := us.database.QueryRow(`
		SELECT id, original_filename, stored_path, storage_url, file_type, file_size, uploaded_by, created_at
		FROM file_uploads WHERE file_type = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		string(fileType),
	).Scan(
		&record.ID,
		&record.OriginalFilename,
		&record.StoredPath,
		&storageURL,
		&fileTypeStr,
		&record.FileSize,
		&record.UploadedBy,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file upload: %w", err)
	}

	record.FileType = models.FileType(fileTypeStr)
	if storageURL.Valid {
		record.StorageURL = storageURL.String
	}
	return &record, nil
}

// Delete removes a stored file from disk and its record. Missing files are
// not an error so delete stays idempotent.
func (us *UploadStore) Delete(record *models.FileUpload) error {
	if record == nil {
		return nil
	}
	if record.StoredPath != "" {
		fullPath := filepath.Join(us.uploadDir, filepath.FromSlash(record.StoredPath))
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove file: %w", err)
		}
	}
	if record.ID != 0 {
		if _, err := us.database.Exec(`DELETE FROM file_uploads WHERE id = ?`, record.ID); err != nil {
			return fmt.Errorf("failed to delete upload record: %w", err)
		}
	}
	log.Printf("Deleted upload: path=%s", record.StoredPath)
	return nil
}

// DeletePath removes a stored file by its relative path. Idempotent.
func (us *UploadStore) DeletePath(relPath string) error {
	if relPath == "" {
		return nil
	}
	fullPath := filepath.Join(us.uploadDir, filepath.FromSlash(relPath))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// LocalPath resolves a stored relative path to a filesystem path
func (us *UploadStore) LocalPath(relPath string) string {
	return filepath.Join(us.uploadDir, filepath.FromSlash(relPath))
}

// PublicURL builds the URL dashboard clients use to fetch a stored file
func (us *UploadStore) PublicURL(relPath string) string {
	return us.baseURL + "/uploads/" + strings.TrimPrefix(path.Clean("/"+relPath), "/")
}

// RelativePathFromURL extracts the uploads-relative path from a stored public
// URL, or "" when the URL does not point under /uploads/.
func RelativePathFromURL(fileURL string) string {
	const marker = "/uploads/"
	idx := strings.Index(fileURL, marker)
	if idx < 0 {
		return ""
	}
	rel := strings.TrimLeft(strings.TrimSpace(fileURL[idx+len(marker):]), "/")
	return strings.ReplaceAll(rel, "\\", "/")
}
