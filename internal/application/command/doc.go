// Package command содержит операции записи: решение по заявке и назначение
// руководителя. Каждая команда сохраняет изменение и публикует доменное событие,
// на которое подписан движок автоматизации.
package command
