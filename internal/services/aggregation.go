package services

import (
	"finstats/internal/models"
)

// AggregateTransactions books every record whose UTC calendar day lies inside the
// window into a fresh bucket. Records outside the exact range are dropped.
func AggregateTransactions(transactions []models.Transaction, window models.DateWindow) *models.AggregateBucket {
	bucket := models.NewAggregateBucket()
	for i := range transactions {
		txn := &transactions[i]
		if !window.Contains(txn.OccurredAt) {
			continue
		}
		bucket.Add(txn.Type, txn.AmountMinor, txn.Tags)
	}
	return bucket
}

// AggregateConverted converts each in-window record into the adapter's target currency
// and books the result into bucket. Records whose currency has no usable rate contribute
// nothing and are tracked by the adapter.
func AggregateConverted(bucket *models.AggregateBucket, transactions []models.Transaction, window models.DateWindow, adapter *ConversionAdapter) {
	for i := range transactions {
		txn := &transactions[i]
		if !window.Contains(txn.OccurredAt) {
			continue
		}
		amount, ok := adapter.Convert(txn.AmountMinor, txn.Currency)
		if !ok {
			continue
		}
		bucket.Add(txn.Type, amount, txn.Tags)
	}
}
