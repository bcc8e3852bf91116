// Пакет access — движок контроля доступа к файлам.
// Реализует таблицу решений: право определяется владением файлом,
// явным предоставлением доступа (share) или публичностью файла.
// Пакет чистый: никакого I/O, только решение по переданным данным.
package access

import (
	"errors"

	"github.com/bigkaa/gofileshare/internal/domain/model"
)

// Результаты отрицательных решений движка.
var (
	// ErrUnauthenticated — операция требует аутентификации.
	ErrUnauthenticated = errors.New("требуется аутентификация")
	// ErrForbidden — аутентифицированному пользователю операция запрещена.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrEmptyPatch — патч не содержит ни одного изменения.
	ErrEmptyPatch = errors.New("пустой набор изменений")
)

// Principal — аутентифицированный субъект запроса.
// nil-указатель означает анонимный запрос.
type Principal struct {
	// ID — UUID пользователя
	ID string
	// Username — имя пользователя
	Username string
	// Email — адрес электронной почты
	Email string
}

// Operation — операция над файлом, для которой принимается решение.
type Operation int

const (
	// OpView — просмотр метаданных и скачивание содержимого.
	OpView Operation = iota
	// OpRename — переименование файла.
	OpRename
	// OpSetVisibility — переключение флага публичности.
	OpSetVisibility
	// OpDelete — удаление файла.
	OpDelete
	// OpManageShares — выдача и отзыв доступа.
	OpManageShares
)

// levelWeight — вес уровня доступа для сравнения.
// Чем выше вес, тем больше привилегий.
var levelWeight = map[string]int{
	model.AccessRead:  1,
	model.AccessWrite: 2,
	model.AccessAdmin: 3,
}

// IsValidLevel проверяет, является ли строка допустимым уровнем доступа.
func IsValidLevel(level string) bool {
	_, ok := levelWeight[level]
	return ok
}

// Decide применяет таблицу решений к операции op над файлом f.
// shares — все действующие предоставления доступа к файлу.
// Возвращает nil, если операция разрешена, иначе ErrUnauthenticated
// или ErrForbidden.
//
// Владелец имеет полный доступ независимо от записей share: запись
// share на самого владельца (повреждённые данные) игнорируется и
// не может понизить его права.
func Decide(p *Principal, f *model.File, shares []*model.Share, op Operation) error {
	if op == OpView {
		// Публичные файлы видны всем, включая анонимов.
		if f.IsPublic {
			return nil
		}
		if p == nil {
			return ErrUnauthenticated
		}
		if p.ID == f.OwnerID {
			return nil
		}
		if grantedLevel(shares, p.ID, f.OwnerID) != "" {
			return nil
		}
		return ErrForbidden
	}

	// Все изменяющие операции требуют аутентификации.
	if p == nil {
		return ErrUnauthenticated
	}
	if p.ID == f.OwnerID {
		return nil
	}

	level := grantedLevel(shares, p.ID, f.OwnerID)
	switch op {
	case OpRename:
		if atLeast(level, model.AccessWrite) {
			return nil
		}
	case OpDelete:
		if atLeast(level, model.AccessAdmin) {
			return nil
		}
	case OpSetVisibility, OpManageShares:
		// Только владелец. Уровень admin не распространяется
		// на публичность и управление доступом.
	}
	return ErrForbidden
}

// FilePatch — типизированный набор изменений метаданных файла.
// nil-поле означает «не менять».
type FilePatch struct {
	// Rename — новое оригинальное имя файла
	Rename *string
	// SetPublic — новое значение флага публичности
	SetPublic *bool
}

// Empty сообщает, что патч не содержит изменений.
func (p FilePatch) Empty() bool {
	return p.Rename == nil && p.SetPublic == nil
}

// DecidePatch проверяет каждое поле патча по таблице решений.
// Патч атомарен: если хотя бы одно поле не разрешено, отклоняется
// весь патч и ни одно изменение не применяется.
func DecidePatch(pr *Principal, f *model.File, shares []*model.Share, patch FilePatch) error {
	if patch.Empty() {
		return ErrEmptyPatch
	}
	if patch.Rename != nil {
		if err := Decide(pr, f, shares, OpRename); err != nil {
			return err
		}
	}
	if patch.SetPublic != nil {
		if err := Decide(pr, f, shares, OpSetVisibility); err != nil {
			return err
		}
	}
	return nil
}

// grantedLevel возвращает уровень доступа пользователя userID из набора
// shares или пустую строку, если доступ не предоставлен.
// Записи на владельца ownerID игнорируются.
func grantedLevel(shares []*model.Share, userID, ownerID string) string {
	for _, s := range shares {
		if s.UserID == ownerID {
			continue
		}
		if s.UserID == userID {
			return s.AccessLevel
		}
	}
	return ""
}

// atLeast сообщает, что уровень level не ниже требуемого required.
// Неизвестный или пустой уровень имеет вес 0 и не проходит проверку.
func atLeast(level, required string) bool {
	return levelWeight[level] >= levelWeight[required]
}
