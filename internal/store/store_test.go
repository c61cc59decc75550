package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/ledger/ledgertest"
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type FileStoreTestSuite struct {
	suite.Suite
	tempDir string
	logger  *logger.Logger
}

func (suite *FileStoreTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

func (suite *FileStoreTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "file_store_test_*")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *FileStoreTestSuite) TearDownTest() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func TestFileStoreTestSuite(t *testing.T) {
	suite.Run(t, new(FileStoreTestSuite))
}

func (suite *FileStoreTestSuite) newStore() *FileStore {
	return NewFileStore(filepath.Join(suite.tempDir, "stats.txt"), filepath.Join(suite.tempDir, "backups"), suite.logger)
}

func (suite *FileStoreTestSuite) TestWriteAndRead() {
	fs := suite.newStore()

	suite.Require().NoError(fs.Write(ledgertest.Sample()))

	text, err := fs.Read()
	suite.Require().NoError(err)
	suite.Equal(ledgertest.Sample(), text)

	suite.Require().NoError(fs.Write("replaced"))

	text, err = fs.Read()
	suite.Require().NoError(err)
	suite.Equal("replaced", text)

	// No temporary files are left behind.
	entries, err := os.ReadDir(suite.tempDir)
	suite.Require().NoError(err)
	suite.Len(entries, 1)
}

func (suite *FileStoreTestSuite) TestWriteCreatesDirectory() {
	fs := NewFileStore(filepath.Join(suite.tempDir, "nested", "dir", "stats.txt"), "", suite.logger)

	suite.Require().NoError(fs.Write("text"))
	suite.FileExists(fs.Path())
	suite.Equal(filepath.Join(suite.tempDir, "nested", "dir"), fs.BackupDir())
}

func (suite *FileStoreTestSuite) TestReadMissingFile() {
	_, err := suite.newStore().Read()

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeLedgerReadFailed))
}

func (suite *FileStoreTestSuite) TestBackup() {
	fs := suite.newStore()
	fs.now = func() time.Time { return time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC) }
	suite.Require().NoError(fs.Write("version 1"))

	path, err := fs.Backup()
	suite.Require().NoError(err)

	suite.Equal(filepath.Join(suite.tempDir, "backups", "stats_backup_2025-03-09_14-05-07.txt"), path)

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Equal("version 1", string(data))
}

func (suite *FileStoreTestSuite) TestBackupCollisionGetsSuffix() {
	fs := suite.newStore()
	fs.now = func() time.Time { return time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC) }
	suite.Require().NoError(fs.Write("version 1"))

	first, err := fs.Backup()
	suite.Require().NoError(err)

	suite.Require().NoError(fs.Write("version 2"))

	second, err := fs.Backup()
	suite.Require().NoError(err)

	third, err := fs.Backup()
	suite.Require().NoError(err)

	suite.NotEqual(first, second)
	suite.Equal(filepath.Join(suite.tempDir, "backups", "stats_backup_2025-03-09_14-05-07_2.txt"), second)
	suite.Equal(filepath.Join(suite.tempDir, "backups", "stats_backup_2025-03-09_14-05-07_3.txt"), third)

	data, err := os.ReadFile(first)
	suite.Require().NoError(err)
	suite.Equal("version 1", string(data))
}

func (suite *FileStoreTestSuite) TestBackupMissingLedger() {
	_, err := suite.newStore().Backup()

	suite.True(errors.HasCode(err, errors.ErrCodeBackupFailed))
}

func (suite *FileStoreTestSuite) TestListBackups() {
	fs := suite.newStore()
	suite.Require().NoError(fs.Write("text"))

	stamps := []time.Time{
		time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC),
		time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	for _, stamp := range stamps {
		fs.now = func() time.Time { return stamp }
		_, err := fs.Backup()
		suite.Require().NoError(err)
	}

	suite.Require().NoError(os.WriteFile(filepath.Join(fs.BackupDir(), "notes.txt"), []byte("x"), 0644))

	backups, err := fs.ListBackups()
	suite.Require().NoError(err)

	names := make([]string, 0, len(backups))
	for _, b := range backups {
		names = append(names, filepath.Base(b))
	}

	suite.Equal([]string{
		"stats_backup_2025-03-09_23-59-59.txt",
		"stats_backup_2025-03-10_09-00-00.txt",
		"stats_backup_2025-03-10_09-00-00_2.txt",
	}, names)
}

func (suite *FileStoreTestSuite) TestListBackupsWithoutDirectory() {
	backups, err := suite.newStore().ListBackups()

	suite.NoError(err)
	suite.Empty(backups)
}

func (suite *FileStoreTestSuite) TestEnsureTemplate() {
	fs := suite.newStore()
	fs.now = func() time.Time { return time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) }

	created, err := fs.EnsureTemplate(ledgertest.Marker, "footer")
	suite.Require().NoError(err)
	suite.True(created)

	text, err := fs.Read()
	suite.Require().NoError(err)

	summary, trades := ledger.NewParser(ledgertest.Marker, suite.logger).Parse(text)
	suite.Equal("09.03.25", summary.StartDate)
	suite.Len(trades, 1)

	created, err = fs.EnsureTemplate(ledgertest.Marker, "footer")
	suite.Require().NoError(err)
	suite.False(created)
}

func (suite *FileStoreTestSuite) TestEnsureTemplateKeepsEmptyFile() {
	fs := suite.newStore()
	suite.Require().NoError(os.WriteFile(fs.Path(), nil, 0644))

	created, err := fs.EnsureTemplate(ledgertest.Marker, "")
	suite.Require().NoError(err)
	suite.False(created)

	text, err := fs.Read()
	suite.Require().NoError(err)
	suite.Empty(text)
}

func (suite *FileStoreTestSuite) TestWriteKeepsFileMode() {
	fs := suite.newStore()

	suite.Require().NoError(fs.Write(ledgertest.Sample()))

	info, err := os.Stat(fs.Path())
	suite.Require().NoError(err)
	suite.Equal(os.FileMode(0644), info.Mode().Perm())

	suite.Require().NoError(os.Chmod(fs.Path(), 0640))
	suite.Require().NoError(fs.Write("replaced"))

	info, err = os.Stat(fs.Path())
	suite.Require().NoError(err)
	suite.Equal(os.FileMode(0640), info.Mode().Perm())
}

func (suite *FileStoreTestSuite) TestListBackupsUnreadableDirectory() {
	backupDir := filepath.Join(suite.tempDir, "not-a-dir")
	suite.Require().NoError(os.WriteFile(backupDir, []byte("x"), 0644))

	fs := NewFileStore(filepath.Join(suite.tempDir, "stats.txt"), backupDir, suite.logger)

	_, err := fs.ListBackups()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBackupFailed))
}
