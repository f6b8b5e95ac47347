package orders

import "strconv"

const (
	TopicOrderPlaced       = "marketplace.order.placed"
	TopicSellerOrderStatus = "marketplace.seller_order.status"
)

// PartitionKey keeps every event of one seller order on the same partition.
func PartitionKey(sellerOrderID int64) string { return strconv.FormatInt(sellerOrderID, 10) }
