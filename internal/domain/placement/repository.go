package placement

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence (postgres и sqlite).
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository определяет операции над студентами, нужные движку.
type StudentRepository interface {
	// GetByID возвращает студента по ID.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetAll возвращает всех студентов.
	GetAll(ctx context.Context) ([]*Student, error)

	// GetByUniversity возвращает студентов университета.
	GetByUniversity(ctx context.Context, universityID string) ([]*Student, error)

	// AssignSupervisor назначает руководителя студенту.
	// Возвращает ErrStudentNotFound, если студент не найден.
	AssignSupervisor(ctx context.Context, studentID, supervisorID string) error
}

// InternshipRepository определяет операции над стажировками.
type InternshipRepository interface {
	// GetByID возвращает стажировку по ID.
	// Возвращает ErrInternshipNotFound, если стажировка не найдена.
	GetByID(ctx context.Context, id string) (*Internship, error)

	// GetByStatus возвращает стажировки со статусом в порядке создания.
	GetByStatus(ctx context.Context, status InternshipStatus) ([]*Internship, error)

	// UpdateStatus сохраняет новый статус стажировки.
	// Возвращает ErrInternshipNotFound, если стажировка не найдена.
	UpdateStatus(ctx context.Context, id string, status InternshipStatus) error
}

// ApplicationRepository определяет операции над заявками.
type ApplicationRepository interface {
	// GetByID возвращает заявку по ID.
	// Возвращает ErrApplicationNotFound, если заявка не найдена.
	GetByID(ctx context.Context, id string) (*Application, error)

	// GetByStudent возвращает все заявки студента.
	GetByStudent(ctx context.Context, studentID string) ([]*Application, error)

	// GetByInternship возвращает все заявки на стажировку.
	GetByInternship(ctx context.Context, internshipID string) ([]*Application, error)

	// GetByStatus возвращает заявки с указанным статусом.
	GetByStatus(ctx context.Context, status ApplicationStatus) ([]*Application, error)

	// UpdateStatus сохраняет решение по заявке и время рассмотрения.
	// Возвращает ErrApplicationNotFound, если заявка не найдена.
	UpdateStatus(ctx context.Context, id string, status ApplicationStatus, reviewedAt time.Time) error
}

// DocumentRepository возвращает загруженные документы.
type DocumentRepository interface {
	// GetByStudent возвращает документы студента.
	GetByStudent(ctx context.Context, studentID string) ([]*Document, error)
}

// DirectoryRepository разрешает пользователей, университеты, организации и руководителей.
type DirectoryRepository interface {
	// GetUser возвращает пользователя по ID.
	// Возвращает ErrUserNotFound, если пользователь не найден.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByEmail возвращает пользователя по email (без учёта регистра).
	// Возвращает ErrUserNotFound, если пользователь не найден.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUniversity возвращает университет по ID.
	GetUniversity(ctx context.Context, id string) (*University, error)

	// GetOrganization возвращает организацию по ID.
	GetOrganization(ctx context.Context, id string) (*Organization, error)

	// GetSupervisor возвращает руководителя по ID.
	GetSupervisor(ctx context.Context, id string) (*Supervisor, error)
}

// Repositories группирует все репозитории для удобной передачи в компоненты.
type Repositories struct {
	Students     StudentRepository
	Internships  InternshipRepository
	Applications ApplicationRepository
	Documents    DocumentRepository
	Directory    DirectoryRepository
}
