package models

import "time"

// DurationEntry минимальный срез пользователя, нужный ежедневному списанию дней подписки.
type DurationEntry struct {
	UUID        string
	Email       string
	DurationDay int
}

// SubscriptionUpdate набор полей для точечного обновления записи.
// CarCreateLimit задаётся только тогда, когда DurationDay достиг нуля.
// ExpectedDurationDay значение, прочитанное перед списанием: запись обновляется, только если оно не изменилось.
type SubscriptionUpdate struct {
	ExpectedDurationDay int
	DurationDay         int
	CarCreateLimit      *int
}

// NextSubscriptionUpdate вычисляет обновление для одного дня списания.
func NextSubscriptionUpdate(durationDay int) SubscriptionUpdate {
	upd := SubscriptionUpdate{ExpectedDurationDay: durationDay, DurationDay: durationDay - 1}
	if upd.DurationDay == 0 {
		zero := 0
		upd.CarCreateLimit = &zero
	}
	return upd
}

// SubscriptionExpired событие, которое публикуется, когда у пользователя закончились дни подписки.
type SubscriptionExpired struct {
	UserUID   string    `json:"user_uid"`
	Email     string    `json:"email"`
	ExpiredAt time.Time `json:"expired_at"`
}
