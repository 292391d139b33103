package navigation

// SessionView - то, что guard читает из сессии. Реализуется *session.Manager.
type SessionView interface {
	Roles() []string
	HasRole(role string) bool
}

// Decision - результат guard: разрешить переход или перенаправить.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision              { return Decision{Allow: true} }
func redirect(to string) Decision { return Decision{Redirect: to} }

// Guard решает судьбу перехода на target. Правила проверяются строго по
// порядку, срабатывает первое:
//  1. нужен вход, а ролей нет - на /login;
//  2. нужна роль, а её нет - на / (пользователь не разлогинивается);
//  3. залогиненный пользователь идёт на /login или /register - на /;
//  4. иначе - разрешить.
//
// Guard не меняет сессию.
func Guard(target Route, sess SessionView) Decision {
	authenticated := len(sess.Roles()) > 0

	if target.Meta.RequiresAuth && !authenticated {
		return redirect(LoginPath)
	}
	if target.Meta.RequiresRole != "" && !sess.HasRole(target.Meta.RequiresRole) {
		return redirect(HomePath)
	}
	if (target.Name == RouteLogin || target.Name == RouteRegister) && authenticated {
		return redirect(HomePath)
	}

	return allow()
}
