package enum

// CheckoutStatus 表示結帳紀錄的狀態
type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "pending"   // 已提交，等待付款
	CheckoutStatusPaid      CheckoutStatus = "paid"      // 已支付
	CheckoutStatusFailed    CheckoutStatus = "failed"    // 支付失敗
	CheckoutStatusCancelled CheckoutStatus = "cancelled" // 已取消
)

func (s CheckoutStatus) Valid() bool {
	switch s {
	case CheckoutStatusPending, CheckoutStatusPaid, CheckoutStatusFailed, CheckoutStatusCancelled:
		return true
	}
	return false
}
