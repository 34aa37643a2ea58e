package market

import "strconv"

const (
	TopicOrderCompleted = "order.completed"
	TopicOrderCanceled  = "order.canceled"
)

// Partition key = order id, so events for one order keep their order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
