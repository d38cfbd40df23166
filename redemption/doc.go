// Package redemption wraps the remote gift-card ledger's redeem endpoint:
//
//	POST <apiBaseURL>/GiftCards/{giftCardId}/redeem-by-passkit-member
//	{"amountMinor", "taxMinor", "merchantId", "locationId", "posId", "receiptNumber"}
//
// [Client.Redeem] issues exactly one call per invocation and folds every
// transport or application failure into a failed [Outcome]. Retrying is the
// caller's decision.
package redemption
