// Package placement содержит доменную модель размещения студентов на стажировки.
//
// Пакет определяет:
//
//   - Сущности: Student, User, University, Supervisor, Organization,
//     Internship, Application, Document
//   - Статусы: InternshipStatus, ApplicationStatus, DocumentType
//   - Интерфейсы репозиториев: StudentRepository, InternshipRepository,
//     ApplicationRepository, DocumentRepository, DirectoryRepository
//
// CRUD этих сущностей живёт вне сервиса; здесь только то, что читают
// движок рекомендаций и автоматизация жизненного цикла.
//
// # Связи
//
// Сущности ссылаются друг на друга по ID. Заявка без InternshipID является
// прямой заявкой в организацию (OrganizationID). Аккаунт организации
// находится через пользователя с тем же email.
//
// # Даты
//
// Internship.StartDate хранится строкой в формате YYYY-MM-DD:
//
//	start, err := internship.StartsAt(loc)
//	if err != nil {
//	    // дата не распознана, стажировка пропускается
//	}
package placement
