package backend_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"offnote/internal/backend"
	"offnote/internal/backend/mocks"
	"offnote/internal/domain"
	"offnote/internal/fsstore"
	"offnote/internal/vault"
)

// newMockFixture enables the file backend with fb standing in for the
// directory store.
func newMockFixture(t *testing.T, fb *mocks.MockFileBackend, opts ...backend.Option) *fixture {
	t.Helper()
	opener := backend.WithOpener(func(context.Context, vault.Dir, fsstore.FolderResolver, *slog.Logger) (backend.FileBackend, int, error) {
		return fb, 0, nil
	})
	f := newFixture(t, append([]backend.Option{opener}, opts...)...)

	fb.EXPECT().ListAll(gomock.Any()).Return(nil, nil)
	f.enable(t)
	return f
}

func TestSelector_WriteFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	f := newMockFixture(t, fb)
	ctx := context.Background()

	cause := errors.New("device unplugged")
	fb.EXPECT().Write(gomock.Any(), gomock.Any()).Return(domain.Note{}, cause)

	note, err := f.selector.CreateNote(ctx, "Fallback", "body", "")
	require.Error(t, err)

	var fe *domain.FallbackError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "create", fe.Op)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)

	stored, err := f.store.Notes.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "body", stored.Content)
	assert.Contains(t, f.selector.Status(ctx).LastError, "device unplugged")
}

func TestSelector_InvalidInputDoesNotFallBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	f := newMockFixture(t, fb)
	ctx := context.Background()

	fb.EXPECT().Write(gomock.Any(), gomock.Any()).
		Return(domain.Note{}, &domain.ValidationError{Field: "title", Message: "bad"})

	_, err := f.selector.CreateNote(ctx, "x", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, domain.IsDegraded(err))

	stored, err := f.store.Notes.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSelector_ReadFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	f := newMockFixture(t, fb)
	ctx := context.Background()

	kept := domain.Note{ID: "db-1", Title: "Kept", Content: "in database", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, f.store.Notes.Put(ctx, kept))

	tests := []struct {
		name    string
		readErr error
	}{
		{name: "not on disk", readErr: domain.ErrNotFound},
		{name: "disk failure", readErr: errors.New("io error")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb.EXPECT().Read(gomock.Any(), "db-1").Return(domain.Note{}, tt.readErr)

			got, err := f.selector.GetNote(ctx, "db-1")
			require.NoError(t, err)
			assert.Equal(t, "in database", got.Content)
		})
	}

	fb.EXPECT().ListAll(gomock.Any()).Return(nil, errors.New("io error"))
	notes, err := f.selector.ListNotes(ctx, domain.DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "db-1", notes[0].ID)
}

func TestSelector_BreakerOpens(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	f := newMockFixture(t, fb, backend.WithBreaker(backend.BreakerConfig{
		ConsecutiveFailures: 2,
		Timeout:             time.Hour,
	}))
	ctx := context.Background()

	fb.EXPECT().Write(gomock.Any(), gomock.Any()).Return(domain.Note{}, errors.New("io error")).Times(2)

	for i := range 4 {
		_, err := f.selector.CreateNote(ctx, "Burst", "", "")
		assert.True(t, domain.IsDegraded(err), "call %d: %v", i, err)
	}

	stored, err := f.store.Notes.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestSelector_NotFoundKeepsBreakerClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	f := newMockFixture(t, fb, backend.WithBreaker(backend.BreakerConfig{
		ConsecutiveFailures: 1,
		Timeout:             time.Hour,
	}))
	ctx := context.Background()

	fb.EXPECT().Read(gomock.Any(), gomock.Any()).Return(domain.Note{}, domain.ErrNotFound).Times(3)
	for range 3 {
		_, err := f.selector.GetNote(ctx, "absent")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestSelector_DeleteFolderPartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	f := newMockFixture(t, fb)
	ctx := context.Background()

	fb.EXPECT().CreateFolderDirectory(gomock.Any(), "Stuck").Return(nil)
	folder, err := f.selector.CreateFolder(ctx, "Stuck", "", "")
	require.NoError(t, err)

	partial := &domain.PartialFailure{Op: "delete folder directory", Succeeded: 1, Failed: 1, Errs: []error{errors.New("locked")}}
	fb.EXPECT().DeleteFolderDirectory(gomock.Any(), "Stuck").Return(partial)

	err = f.selector.DeleteFolder(ctx, folder.ID)
	var pf *domain.PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, 1, pf.Failed)

	_, err = f.selector.GetFolder(ctx, folder.ID)
	assert.NoError(t, err)
}

func TestSelector_CreateFolderDirectoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	f := newMockFixture(t, fb)
	ctx := context.Background()

	fb.EXPECT().CreateFolderDirectory(gomock.Any(), "Photos").Return(errors.New("read-only"))
	folder, err := f.selector.CreateFolder(ctx, "Photos", "", "")
	assert.True(t, domain.IsDegraded(err))
	assert.Equal(t, "Photos", folder.Name)

	got, err := f.selector.GetFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, got.ID)
}

func TestSelector_UpdateFolderRenameFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	f := newMockFixture(t, fb)
	ctx := context.Background()

	fb.EXPECT().CreateFolderDirectory(gomock.Any(), "Before").Return(nil)
	folder, err := f.selector.CreateFolder(ctx, "Before", "", "")
	require.NoError(t, err)

	integrity := &domain.IntegrityError{Op: "rename folder directory", OldPath: "Before", NewPath: "After", Err: errors.New("busy")}
	fb.EXPECT().RenameFolderDirectory(gomock.Any(), "Before", "After").Return(integrity)

	folder.Name = "After"
	_, err = f.selector.UpdateFolder(ctx, folder)
	var ie *domain.IntegrityError
	require.ErrorAs(t, err, &ie)

	got, err := f.selector.GetFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "Before", got.Name)
}

func TestSelector_EnableCountsExportFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	opener := backend.WithOpener(func(context.Context, vault.Dir, fsstore.FolderResolver, *slog.Logger) (backend.FileBackend, int, error) {
		return fb, 3, nil
	})
	f := newFixture(t, opener)
	ctx := context.Background()

	good, err := f.selector.CreateNote(ctx, "Exports", "fine", "")
	require.NoError(t, err)
	bad, err := f.selector.CreateNote(ctx, "Fails", "stays", "")
	require.NoError(t, err)

	fb.EXPECT().ListAll(gomock.Any()).Return(nil, nil)
	fb.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n domain.Note) (domain.Note, error) {
		if n.ID == bad.ID {
			return domain.Note{}, errors.New("quota exceeded")
		}
		return n, nil
	}).Times(2)

	report, err := f.selector.EnableFileBackend(ctx, f.handle)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Migrated)
	assert.Equal(t, domain.Counts{Success: 1, Failed: 1}, report.Exported)
	assert.Equal(t, 1, report.Cleared)
	assert.Equal(t, 1, report.Failed())

	_, err = f.store.Notes.Get(ctx, good.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	stored, err := f.store.Notes.Get(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, "stays", stored.Content)
}

func TestSelector_EnableRevertsWhenDirectoryUnreadable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fb := mocks.NewMockFileBackend(ctrl)
	opener := backend.WithOpener(func(context.Context, vault.Dir, fsstore.FolderResolver, *slog.Logger) (backend.FileBackend, int, error) {
		return fb, 0, nil
	})
	f := newFixture(t, opener)
	ctx := context.Background()

	note, err := f.selector.CreateNote(ctx, "Shopping", "eggs", "")
	require.NoError(t, err)

	fb.EXPECT().ListAll(gomock.Any()).Return(nil, errors.New("device removed"))

	_, err = f.selector.EnableFileBackend(ctx, f.handle)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Equal(t, domain.StateStructuredActive, f.selector.State())

	status := f.selector.Status(ctx)
	assert.False(t, status.Enabled)
	assert.Empty(t, status.DirectoryName)
	assert.NotEmpty(t, status.LastError)

	stored, err := f.store.Notes.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "eggs", stored.Content)
}
