package navigation

// RoleAdmin - роль администратора библиотеки.
const RoleAdmin = "ROLE_ADMIN"

// DefaultRoutes - маршруты клиента библиотеки. Всё под "/" требует входа,
// разделы администрирования - роли ROLE_ADMIN.
func DefaultRoutes() []RouteRecord {
	admin := Requirement{RequiresRole: RoleAdmin}

	return []RouteRecord{
		{Path: LoginPath, Name: RouteLogin},
		{Path: "/register", Name: RouteRegister},
		{
			Path: HomePath,
			Meta: Requirement{RequiresAuth: true},
			Children: []RouteRecord{
				{Path: "/admin", Name: "AdminHome", Meta: admin},
				{Path: "", Name: "Home"},
				{Path: "books", Name: "Books"},
				{Path: "books/detail/{bookId}", Name: "BookDetail"},
				{Path: "borrowing", Name: "Borrowing"},
				{Path: "users", Name: "Users", Meta: admin},
				{Path: "users/{userId}", Name: "UserDetail", Meta: admin},
				{Path: "profile", Name: "Profile"},
			},
		},
	}
}
