package models

// PaymentStatus - статус платежа/эскроу одного бронирования
type PaymentStatus string

// NotificationType - семантическое назначение уведомления
type NotificationType string

type ReviewStatus string

const (
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusDecline   PaymentStatus = "DECLINE"
	PaymentStatusCancel    PaymentStatus = "CANCEL"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusReleased  PaymentStatus = "RELEASED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"

	NotificationTypeBookingConfirmation NotificationType = "BOOKING_CONFIRMATION"
	NotificationTypeBookingCancelled    NotificationType = "BOOKING_CANCELLED"
	NotificationTypeTrekUpdate          NotificationType = "TREK_UPDATE"
	NotificationTypeNewMessage          NotificationType = "NEW_MESSAGE"
	NotificationTypePaymentSuccess      NotificationType = "PAYMENT_SUCCESS"
	NotificationTypePaymentFailed       NotificationType = "PAYMENT_FAILED"
	NotificationTypeReminder            NotificationType = "REMINDER"
	NotificationTypeSystemAlert         NotificationType = "SYSTEM_ALERT"
	NotificationTypeGeneral             NotificationType = "GENERAL"

	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

var PaymentStatuses = []PaymentStatus{
	PaymentStatusSuccess,
	PaymentStatusPending,
	PaymentStatusDecline,
	PaymentStatusCancel,
	PaymentStatusCompleted,
	PaymentStatusReleased,
	PaymentStatusRefunded,
	PaymentStatusFailed,
}

var NotificationTypes = []NotificationType{
	NotificationTypeBookingConfirmation,
	NotificationTypeBookingCancelled,
	NotificationTypeTrekUpdate,
	NotificationTypeNewMessage,
	NotificationTypePaymentSuccess,
	NotificationTypePaymentFailed,
	NotificationTypeReminder,
	NotificationTypeSystemAlert,
	NotificationTypeGeneral,
}

func (s PaymentStatus) IsValid() bool {
	for _, v := range PaymentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func (t NotificationType) IsValid() bool {
	for _, v := range NotificationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ReviewableStatuses - статусы, в которых по бронированию можно оставить отзыв.
// RELEASED означает, что выплата организатору прошла после завершения похода.
var ReviewableStatuses = []PaymentStatus{PaymentStatusCompleted, PaymentStatusReleased}
