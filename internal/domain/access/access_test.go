package access

import (
	"errors"
	"testing"

	"github.com/bigkaa/gofileshare/internal/domain/model"
)

const (
	ownerID    = "owner-1"
	readerID   = "reader-1"
	writerID   = "writer-1"
	adminID    = "admin-1"
	strangerID = "stranger-1"
)

// testFile возвращает файл с владельцем ownerID.
func testFile(isPublic bool) *model.File {
	return &model.File{
		ID:               "file-1",
		OwnerID:          ownerID,
		OriginalFilename: "report.pdf",
		IsPublic:         isPublic,
	}
}

// testShares возвращает стандартный набор предоставлений доступа.
func testShares() []*model.Share {
	return []*model.Share{
		{FileID: "file-1", UserID: readerID, AccessLevel: model.AccessRead},
		{FileID: "file-1", UserID: writerID, AccessLevel: model.AccessWrite},
		{FileID: "file-1", UserID: adminID, AccessLevel: model.AccessAdmin},
	}
}

func principal(id string) *Principal {
	return &Principal{ID: id, Username: "user-" + id}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		principal *Principal
		file      *model.File
		shares    []*model.Share
		op        Operation
		expected  error
	}{
		// --- Просмотр ---
		{"аноним видит публичный файл", nil, testFile(true), nil, OpView, nil},
		{"аноним не видит приватный файл", nil, testFile(false), testShares(), OpView, ErrUnauthenticated},
		{"владелец видит свой приватный файл", principal(ownerID), testFile(false), nil, OpView, nil},
		{"доступ read разрешает просмотр", principal(readerID), testFile(false), testShares(), OpView, nil},
		{"доступ write разрешает просмотр", principal(writerID), testFile(false), testShares(), OpView, nil},
		{"доступ admin разрешает просмотр", principal(adminID), testFile(false), testShares(), OpView, nil},
		{"посторонний не видит приватный файл", principal(strangerID), testFile(false), testShares(), OpView, ErrForbidden},
		{"посторонний видит публичный файл", principal(strangerID), testFile(true), nil, OpView, nil},

		// --- Переименование ---
		{"владелец переименовывает", principal(ownerID), testFile(false), nil, OpRename, nil},
		{"доступ write разрешает переименование", principal(writerID), testFile(false), testShares(), OpRename, nil},
		{"доступ admin разрешает переименование", principal(adminID), testFile(false), testShares(), OpRename, nil},
		{"доступ read не разрешает переименование", principal(readerID), testFile(false), testShares(), OpRename, ErrForbidden},
		{"публичность не даёт права на переименование", principal(strangerID), testFile(true), nil, OpRename, ErrForbidden},
		{"аноним не переименовывает даже публичный файл", nil, testFile(true), nil, OpRename, ErrUnauthenticated},

		// --- Публичность ---
		{"владелец меняет публичность", principal(ownerID), testFile(false), nil, OpSetVisibility, nil},
		{"доступ admin не меняет публичность", principal(adminID), testFile(false), testShares(), OpSetVisibility, ErrForbidden},
		{"доступ write не меняет публичность", principal(writerID), testFile(false), testShares(), OpSetVisibility, ErrForbidden},
		{"аноним не меняет публичность", nil, testFile(true), nil, OpSetVisibility, ErrUnauthenticated},

		// --- Удаление ---
		{"владелец удаляет", principal(ownerID), testFile(false), nil, OpDelete, nil},
		{"доступ admin разрешает удаление", principal(adminID), testFile(false), testShares(), OpDelete, nil},
		{"доступ write не разрешает удаление", principal(writerID), testFile(false), testShares(), OpDelete, ErrForbidden},
		{"доступ read не разрешает удаление", principal(readerID), testFile(false), testShares(), OpDelete, ErrForbidden},
		{"аноним не удаляет", nil, testFile(true), nil, OpDelete, ErrUnauthenticated},

		// --- Управление доступом ---
		{"владелец управляет доступом", principal(ownerID), testFile(false), nil, OpManageShares, nil},
		{"доступ admin не управляет доступом", principal(adminID), testFile(false), testShares(), OpManageShares, ErrForbidden},
		{"посторонний не управляет доступом", principal(strangerID), testFile(true), nil, OpManageShares, ErrForbidden},
		{"аноним не управляет доступом", nil, testFile(true), nil, OpManageShares, ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decide(tt.principal, tt.file, tt.shares, tt.op)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Decide() = %v, ожидается %v", err, tt.expected)
			}
		})
	}
}

// Повреждённая запись share на самого владельца не понижает его права.
func TestDecide_OwnerShareIgnored(t *testing.T) {
	file := testFile(false)
	shares := []*model.Share{
		{FileID: "file-1", UserID: ownerID, AccessLevel: model.AccessRead},
	}

	for _, op := range []Operation{OpView, OpRename, OpSetVisibility, OpDelete, OpManageShares} {
		if err := Decide(principal(ownerID), file, shares, op); err != nil {
			t.Errorf("Decide(владелец, op=%d) = %v, ожидается nil", op, err)
		}
	}
}

// Запись share на владельца не учитывается и для других пользователей.
func TestDecide_OwnerShareNotMatchedForOthers(t *testing.T) {
	file := testFile(false)
	shares := []*model.Share{
		{FileID: "file-1", UserID: ownerID, AccessLevel: model.AccessAdmin},
	}

	err := Decide(principal(strangerID), file, shares, OpView)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Decide() = %v, ожидается ErrForbidden", err)
	}
}

func TestDecide_UnknownLevelDenied(t *testing.T) {
	file := testFile(false)
	shares := []*model.Share{
		{FileID: "file-1", UserID: readerID, AccessLevel: "superuser"},
	}

	if err := Decide(principal(readerID), file, shares, OpRename); !errors.Is(err, ErrForbidden) {
		t.Errorf("Decide() = %v, ожидается ErrForbidden для неизвестного уровня", err)
	}
}

func TestDecidePatch(t *testing.T) {
	newName := "renamed.pdf"
	public := true

	tests := []struct {
		name      string
		principal *Principal
		patch     FilePatch
		expected  error
	}{
		{"пустой патч отклоняется", principal(ownerID), FilePatch{}, ErrEmptyPatch},
		{"владелец меняет имя и публичность", principal(ownerID), FilePatch{Rename: &newName, SetPublic: &public}, nil},
		{"write меняет только имя", principal(writerID), FilePatch{Rename: &newName}, nil},
		{"write не меняет публичность", principal(writerID), FilePatch{SetPublic: &public}, ErrForbidden},
		{"патч атомарен: имя+публичность для write отклоняется целиком", principal(writerID), FilePatch{Rename: &newName, SetPublic: &public}, ErrForbidden},
		{"read не меняет имя", principal(readerID), FilePatch{Rename: &newName}, ErrForbidden},
		{"аноним не меняет ничего", nil, FilePatch{Rename: &newName}, ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecidePatch(tt.principal, testFile(false), testShares(), tt.patch)
			if !errors.Is(err, tt.expected) {
				t.Errorf("DecidePatch() = %v, ожидается %v", err, tt.expected)
			}
		})
	}
}

func TestIsValidLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected bool
	}{
		{model.AccessRead, true},
		{model.AccessWrite, true},
		{model.AccessAdmin, true},
		{"", false},
		{"owner", false},
		{"READ", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidLevel(tt.level); got != tt.expected {
				t.Errorf("IsValidLevel(%q) = %v, ожидается %v", tt.level, got, tt.expected)
			}
		})
	}
}
