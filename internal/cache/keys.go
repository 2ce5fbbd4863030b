package cache

import "fmt"

// Keys are shaped {kind}:{user}:{scope} so a single DeletePrefix call drops
// every entry of one kind for one user without touching other users.

// AccountsPrefix covers all account entries for a user.
func AccountsPrefix(userID string) string {
	return fmt.Sprintf("accounts:%s:", userID)
}

// AccountsAllKey caches the user's full account list.
func AccountsAllKey(userID string) string {
	return fmt.Sprintf("accounts:%s:all", userID)
}

// AccountKey caches a single account by id.
func AccountKey(userID string, id int32) string {
	return fmt.Sprintf("accounts:%s:id:%d", userID, id)
}

// AccountNameKey caches a single account by name.
func AccountNameKey(userID string, name string) string {
	return fmt.Sprintf("accounts:%s:name:%s", userID, name)
}

// AccountSummaryKey caches the user's account totals.
func AccountSummaryKey(userID string) string {
	return fmt.Sprintf("accounts:%s:summary", userID)
}

// CategoriesPrefix covers all category entries for a user.
func CategoriesPrefix(userID string) string {
	return fmt.Sprintf("categories:%s:", userID)
}

// CategoriesAllKey caches the user's full category list.
func CategoriesAllKey(userID string) string {
	return fmt.Sprintf("categories:%s:all", userID)
}

// CategoryKey caches a single category by id.
func CategoryKey(userID string, id int32) string {
	return fmt.Sprintf("categories:%s:id:%d", userID, id)
}

// CategoryNameKey caches a single category by name.
func CategoryNameKey(userID string, name string) string {
	return fmt.Sprintf("categories:%s:name:%s", userID, name)
}

// CategoriesTypeKey caches the user's categories of one type.
func CategoriesTypeKey(userID string, categoryType string) string {
	return fmt.Sprintf("categories:%s:type:%s", userID, categoryType)
}

// CategoriesParentKey caches the user's categories under one parent.
func CategoriesParentKey(userID string, parent string) string {
	return fmt.Sprintf("categories:%s:parent:%s", userID, parent)
}

// TransactionsPrefix covers all transaction list entries for a user.
func TransactionsPrefix(userID string) string {
	return fmt.Sprintf("transactions:%s:", userID)
}

// TransactionsListKey caches one page of a filtered transaction query.
func TransactionsListKey(userID string, filterKey string) string {
	return fmt.Sprintf("transactions:%s:list:%s", userID, filterKey)
}
