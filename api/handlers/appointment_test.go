package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/clinic-api/api/handlers"
	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/databases/mocks"
	"github.com/linesmerrill/clinic-api/models"
)

func newAppointment() (handlers.Appointment, *mocks.CollectionHelper) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	db.On("Collection", "appointments").Return(conn)
	return handlers.Appointment{DB: databases.NewAppointmentDatabase(db)}, conn
}

func TestAppointment_CreateAppointmentHandler(t *testing.T) {
	a, conn := newAppointment()
	conn.On("InsertOne", mock.Anything, mock.AnythingOfType("*models.Appointment")).
		Return(&mocks.InsertOneResultHelper{}, nil)

	body := models.Appointment{
		PatientID:       100001,
		Name:            "Sita",
		Phone:           "9000000000",
		Age:             29,
		Address:         "Hill Road",
		AppointmentDate: "2024-03-20",
		AppointmentTime: "10:30",
		Treatment:       "SCALING",
	}
	rr := serve(a.CreateAppointmentHandler, newRequest(t, "POST", "/appointments", desk, body, nil))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"appointmentDate":"2024-03-20"`)
}

func TestAppointment_CreateAppointmentHandlerMissingField(t *testing.T) {
	a, conn := newAppointment()

	rr := serve(a.CreateAppointmentHandler, newRequest(t, "POST", "/appointments", desk, `{"name":"Sita"}`, nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestAppointment_AppointmentsHandler(t *testing.T) {
	a, conn := newAppointment()
	cur := &mocks.CursorHelper{}
	conn.On("Find", mock.Anything, bson.M{"appointmentDate": "2024-03-20"}, mock.Anything).Return(cur, nil)
	cur.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Appointment)
		*arg = []models.Appointment{{Name: "Sita", AppointmentDate: "2024-03-20", AppointmentTime: "10:30"}}
	})
	cur.On("Close", mock.Anything).Return(nil)

	rr := serve(a.AppointmentsHandler, newRequest(t, "GET", "/appointments?date=2024-03-20", desk, nil, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"Sita"`)
}

func TestAppointment_AppointmentsHandlerBadDate(t *testing.T) {
	a, _ := newAppointment()

	rr := serve(a.AppointmentsHandler, newRequest(t, "GET", "/appointments?date=20-03-2024", desk, nil, nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
