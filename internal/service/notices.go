package service

import (
	"errors"

	"faishion-storefront/internal/qnaview"
	"faishion-storefront/internal/selector"
)

// User-facing notices
const (
	NoticeOutOfStock        = "The selected option is out of stock."
	NoticeInsufficientStock = "Not enough stock."
	NoticeExceedsStock      = "Quantity cannot exceed available stock."
	NoticeSelectOption      = "Please select a product option."
	NoticeIncompleteLines   = "Please check the color, size and quantity of every item."
	NoticeColorFirst        = "Please select a color first."

	NoticeCartSaved      = "Items added to the cart."
	NoticeCartFailed     = "Failed to add items to the cart."
	NoticeOrderFailed    = "Failed to prepare the direct purchase."
	NoticeWishFailed     = "Failed to add to the wishlist."
	NoticeQuestionFailed = "Failed to register the question."

	NoticeQnaUpdated      = "The question has been updated."
	NoticeQnaUpdateFailed = "Failed to update the question."
	NoticeQnaDeleted      = "The question has been deleted."
	NoticeQnaDeleteFailed = "Failed to delete the question."
	NoticeConfirmDelete   = "Are you sure you want to delete this question?"
	NoticeAuthorOnly      = "Only the author can edit or delete this question."
	NoticeEmptyAnswer     = "Please enter an answer."
	NoticeNoPermission    = "You do not have permission to answer."
	NoticeAnswerFailed    = "An error occurred while submitting the answer."
	NoticeAnswerSubmitted = "Your answer has been submitted."
	NoticeAlreadyAnswered = "This question has already been answered."
)

// Navigation targets
const (
	QnaListPath   = "/qna/list"
	OrderNewPath  = "/order/new"
	tryOnPathBase = "/gemini/"
)

// selectorNotice maps a selector rejection to its notice. ok is false for
// errors that are not user-facing rejections.
func selectorNotice(err error) (notice, kind string, ok bool) {
	switch {
	case errors.Is(err, selector.ErrOutOfStock):
		return NoticeOutOfStock, "out_of_stock", true
	case errors.Is(err, selector.ErrInsufficientStock):
		return NoticeInsufficientStock, "insufficient_stock", true
	case errors.Is(err, selector.ErrExceedsStock):
		return NoticeExceedsStock, "exceeds_stock", true
	case errors.Is(err, selector.ErrBelowMinimum):
		return "", "below_minimum", true
	case errors.Is(err, selector.ErrNoSelection):
		return NoticeSelectOption, "no_selection", true
	case errors.Is(err, selector.ErrIncompleteLine):
		return NoticeIncompleteLines, "incomplete_line", true
	case errors.Is(err, selector.ErrColorRequired):
		return NoticeColorFirst, "color_required", true
	}
	return "", "", false
}

// qnaNotice maps a detail-view rejection to its notice
func qnaNotice(err error) (notice, kind string, ok bool) {
	switch {
	case errors.Is(err, qnaview.ErrNotAuthor):
		return NoticeAuthorOnly, "not_author", true
	case errors.Is(err, qnaview.ErrEmptyAnswer):
		return NoticeEmptyAnswer, "empty_answer", true
	case errors.Is(err, qnaview.ErrNoAnswerPermission):
		return NoticeNoPermission, "no_permission", true
	case errors.Is(err, qnaview.ErrAlreadyAnswered):
		return NoticeAlreadyAnswered, "already_answered", true
	}
	return "", "", false
}
