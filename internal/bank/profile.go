package bank

// UpdateProfile 以 u 整批取代五個使用者欄位並回傳新狀態。
// 不做欄位驗證，空字串照單全收；原 state 不變。
func UpdateProfile(state *AppState, u User) *AppState {
	next := state.Clone()
	next.User = User{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
	}
	return next
}
