package appsync

const todoFields = `id name description completed clientId`

type operation struct {
	name     string
	document string
	field    string
}

var (
	opListTodos = operation{
		name:     "ListTodos",
		field:    "listTodos",
		document: `query ListTodos { listTodos { items { ` + todoFields + ` } } }`,
	}
	opCreateTodo = operation{
		name:     "CreateTodo",
		field:    "createTodo",
		document: `mutation CreateTodo($input: CreateTodoInput!) { createTodo(input: $input) { ` + todoFields + ` } }`,
	}
	opUpdateTodo = operation{
		name:     "UpdateTodo",
		field:    "updateTodo",
		document: `mutation UpdateTodo($input: UpdateTodoInput!) { updateTodo(input: $input) { ` + todoFields + ` } }`,
	}
	opDeleteTodo = operation{
		name:     "DeleteTodo",
		field:    "deleteTodo",
		document: `mutation DeleteTodo($input: DeleteTodoInput!) { deleteTodo(input: $input) { ` + todoFields + ` } }`,
	}
	opOnCreateTodo = operation{
		name:     "OnCreateTodo",
		field:    "onCreateTodo",
		document: `subscription OnCreateTodo { onCreateTodo { ` + todoFields + ` } }`,
	}
)
